package library

//go:generate go run ../../cmd/proxygen -interfaces Catalog,Query

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateISBN = errors.New("a book with this isbn is already in the catalog")
	ErrEmptyISBN     = errors.New("isbn must not be empty")
)

// Book is one catalog entry.
type Book struct {
	ISBN   string
	Title  string
	Author string
}

// Catalog manages the books of a library.
type Catalog interface {
	Add(ctx context.Context, book Book) error
	Find(ctx context.Context, isbn string) (Book, error)
	Remove(ctx context.Context, isbn string) error
	Titles(prefix string) []string
}

// Query narrows a search step by step. Every narrowing call returns the query itself.
type Query interface {
	ByAuthor(author string) Query
	Limit(n int) Query
	Run(ctx context.Context) ([]Book, error)
}

// MemoryCatalog keeps books in memory.
type MemoryCatalog struct {
	mu    sync.RWMutex
	books map[string]Book
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{books: make(map[string]Book)}
}

func (c *MemoryCatalog) Add(ctx context.Context, book Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if book.ISBN == "" {
		return ErrEmptyISBN
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.books[book.ISBN]; ok {
		return ErrDuplicateISBN
	}

	c.books[book.ISBN] = book

	return nil
}

func (c *MemoryCatalog) Find(ctx context.Context, isbn string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	book, ok := c.books[isbn]
	if !ok {
		return Book{}, ErrBookNotFound
	}

	return book, nil
}

func (c *MemoryCatalog) Remove(ctx context.Context, isbn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.books[isbn]; !ok {
		return ErrBookNotFound
	}

	delete(c.books, isbn)

	return nil
}

// Titles returns the sorted titles starting with prefix.
func (c *MemoryCatalog) Titles(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var titles []string
	for _, book := range c.books {
		if strings.HasPrefix(book.Title, prefix) {
			titles = append(titles, book.Title)
		}
	}
	slices.Sort(titles)

	return titles
}

// Search starts a query over the books currently in the catalog.
func (c *MemoryCatalog) Search() *BookQuery {
	return &BookQuery{catalog: c}
}

// BookQuery is the Query of a MemoryCatalog.
type BookQuery struct {
	catalog *MemoryCatalog
	author  string
	limit   int
}

func (q *BookQuery) ByAuthor(author string) Query {
	q.author = author
	return q
}

func (q *BookQuery) Limit(n int) Query {
	q.limit = n
	return q
}

// Run returns the matching books ordered by title.
func (q *BookQuery) Run(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.catalog.mu.RLock()
	defer q.catalog.mu.RUnlock()

	var books []Book
	for _, book := range q.catalog.books {
		if q.author == "" || book.Author == q.author {
			books = append(books, book)
		}
	}

	slices.SortFunc(books, func(a, b Book) int { return strings.Compare(a.Title, b.Title) })

	if q.limit > 0 && len(books) > q.limit {
		books = books[:q.limit]
	}

	return books, nil
}
