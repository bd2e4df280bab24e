package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"gorm.io/gorm"
)

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new receipt book repository
func NewBookRepository(db *gorm.DB) domainRepo.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *entity.ReceiptBook) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) CreateBatch(ctx context.Context, books []*entity.ReceiptBook) error {
	if len(books) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(books, 100).Error
	})
}

func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	var book entity.ReceiptBook
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &book, err
}

func (r *bookRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.ReceiptBook, error) {
	var books []entity.ReceiptBook
	if len(ids) == 0 {
		return books, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error
	return books, err
}

func (r *bookRepository) Update(ctx context.Context, book *entity.ReceiptBook) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.ReceiptBook{}, "id = ?", id).Error
}

func (r *bookRepository) List(ctx context.Context, params *domainRepo.BookFilterParams) ([]entity.ReceiptBook, int64, error) {
	var books []entity.ReceiptBook
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ReceiptBook{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(book_label) LIKE ? OR LOWER(batch_label) LIKE ? OR LOWER(assigned_to) LIKE ?",
			like, like, like)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.AssignedTo != "" {
		query = query.Where("assigned_to = ?", params.AssignedTo)
	}
	if params.BatchLabel != "" {
		query = query.Where("batch_label = ?", params.BatchLabel)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("page_start ASC").
		Find(&books).Error

	return books, total, err
}

func (r *bookRepository) ListAll(ctx context.Context) ([]entity.ReceiptBook, error) {
	var books []entity.ReceiptBook
	err := r.db.WithContext(ctx).Order("page_start ASC, book_label ASC").Find(&books).Error
	return books, err
}

func (r *bookRepository) CompleteCycle(ctx context.Context, book *entity.ReceiptBook, entries []entity.PostedEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return fmt.Errorf("failed to append posted entries: %w", err)
			}
		}
		if err := tx.Save(book).Error; err != nil {
			return fmt.Errorf("failed to update book: %w", err)
		}
		return nil
	})
}
