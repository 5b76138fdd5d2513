package book

import (
	"context"
	"time"

	appauthor "github.com/xiebiao/library/internal/application/author"
	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
)

// BookResponse 图书响应DTO，authors按署名顺序展开为作者对象
type BookResponse struct {
	ID            string                      `json:"id"`
	Title         string                      `json:"title"`
	Authors       []*appauthor.AuthorResponse `json:"authors"`
	Description   string                      `json:"description"`
	ISBN13        string                      `json:"ISBN13"`
	Publisher     string                      `json:"publisher"`
	PublishedDate time.Time                   `json:"publishedDate"`
	Genres        []string                    `json:"genres"`
	Status        bool                        `json:"status"`
	BorrowerID    *string                     `json:"borrowerID,omitempty"`
	BorrowDate    *time.Time                  `json:"borrowDate,omitempty"`
	ReturnDate    *time.Time                  `json:"returnDate,omitempty"`
	Image         string                      `json:"image"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// assembler 图书 → 响应DTO（批量查询作者，避免逐本N+1）
type assembler struct {
	authorService author.Service
}

func (a assembler) one(ctx context.Context, b *book.Book) (*BookResponse, error) {
	list, err := a.many(ctx, []*book.Book{b})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

func (a assembler) many(ctx context.Context, books []*book.Book) ([]*BookResponse, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, b := range books {
		for _, id := range b.AuthorIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[string]*appauthor.AuthorResponse, len(ids))
	if len(ids) > 0 {
		authors, err := a.authorService.GetAuthorsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, au := range authors {
			byID[au.ID] = appauthor.ToAuthorResponse(au)
		}
	}

	list := make([]*BookResponse, 0, len(books))
	for _, b := range books {
		authors := make([]*appauthor.AuthorResponse, 0, len(b.AuthorIDs))
		for _, id := range b.AuthorIDs {
			authors = append(authors, byID[id])
		}
		list = append(list, toBookResponse(b, authors))
	}
	return list, nil
}

func toBookResponse(b *book.Book, authors []*appauthor.AuthorResponse) *BookResponse {
	resp := &BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Authors:       authors,
		Description:   b.Description,
		ISBN13:        b.ISBN13,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		Genres:        b.Genres,
		Status:        b.Status,
		BorrowDate:    b.BorrowDate,
		ReturnDate:    b.ReturnDate,
		Image:         b.Image,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	if b.BorrowerID != "" {
		borrower := b.BorrowerID
		resp.BorrowerID = &borrower
	}
	return resp
}
