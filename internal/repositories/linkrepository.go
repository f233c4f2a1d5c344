package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/Bitlytics/internal/database"
	"github.com/Totarae/Bitlytics/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateCode возвращается при попытке сохранить уже занятый код.
var ErrDuplicateCode = errors.New("short code already exists")

// LinkRepositoryInterface определяет методы репозитория ссылок и кликов.
type LinkRepositoryInterface interface {
	SaveLink(ctx context.Context, link *model.ShortLink) error
	GetLink(ctx context.Context, code string) (*model.ShortLink, error)
	LinkExists(ctx context.Context, code string) (bool, error)
	DeactivateLink(ctx context.Context, code string) error
	SaveClick(ctx context.Context, click *model.ClickEvent) error
	IncrementClickCount(ctx context.Context, id uint64) error
	CountLinks(ctx context.Context) (int, error)
	CountClicks(ctx context.Context) (int, error)
	CountOwners(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// LinkRepository реализует LinkRepositoryInterface с использованием PostgreSQL.
type LinkRepository struct {
	DB database.DBInterface
}

// NewLinkRepository создаёт новый экземпляр LinkRepository.
func NewLinkRepository(db database.DBInterface) *LinkRepository {
	return &LinkRepository{DB: db}
}

// SaveLink сохраняет ссылку в базу данных.
// Конфликт по коду возвращается как ErrDuplicateCode.
func (r *LinkRepository) SaveLink(ctx context.Context, link *model.ShortLink) error {
	query := `INSERT INTO links (code, destination, owner_id, title, description, active, expires_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, created, updated`

	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query,
		link.Code, link.Destination, link.Owner, link.Title, link.Description, link.Active, link.ExpiresAt,
	).Scan(&link.ID, &link.Created, &link.Updated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// GetLink извлекает ссылку по короткому коду.
// Отсутствие записи не является ошибкой: возвращается (nil, nil).
func (r *LinkRepository) GetLink(ctx context.Context, code string) (*model.ShortLink, error) {
	query := `SELECT id, code, destination, owner_id, title, description, active, expires_at, click_count, created, updated
              FROM links WHERE code = $1`
	link := &model.ShortLink{}
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query, code).Scan(
		&link.ID, &link.Code, &link.Destination, &link.Owner, &link.Title, &link.Description,
		&link.Active, &link.ExpiresAt, &link.ClickCount, &link.Created, &link.Updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return link, nil
}

// LinkExists проверяет занятость кода.
func (r *LinkRepository) LinkExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)`
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database query error: %w", err)
	}
	return exists, nil
}

// DeactivateLink отключает ссылку; дальнейшие резолвы отвечают 404.
func (r *LinkRepository) DeactivateLink(ctx context.Context, code string) error {
	query := `UPDATE links SET active = FALSE, updated = now() WHERE code = $1`
	_, err := r.DB.(*database.DB).Pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}
	return nil
}

// SaveClick добавляет событие клика.
func (r *LinkRepository) SaveClick(ctx context.Context, click *model.ClickEvent) error {
	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}
	query := `INSERT INTO clicks (link_id, ts, client_addr, user_agent, referrer)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, query,
		click.LinkID, click.Timestamp, click.ClientAddr, click.UserAgent, click.Referrer,
	).Scan(&click.ID)
	if err != nil {
		return fmt.Errorf("failed to insert click event: %w", err)
	}
	return nil
}

// IncrementClickCount атомарно увеличивает счётчик кликов записи.
// Инкремент выполняется на стороне хранилища, не через read-modify-write.
func (r *LinkRepository) IncrementClickCount(ctx context.Context, id uint64) error {
	query := `UPDATE links SET click_count = click_count + 1, updated = now() WHERE id = $1`
	_, err := r.DB.(*database.DB).Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}
	return nil
}

// CountLinks количество активных ссылок
func (r *LinkRepository) CountLinks(ctx context.Context) (int, error) {
	var count int
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, "SELECT COUNT(*) FROM links WHERE active = TRUE").Scan(&count)
	return count, err
}

// CountClicks количество записанных кликов
func (r *LinkRepository) CountClicks(ctx context.Context) (int, error) {
	var count int
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, "SELECT COUNT(*) FROM clicks").Scan(&count)
	return count, err
}

// CountOwners количество владельцев ссылок
func (r *LinkRepository) CountOwners(ctx context.Context) (int, error) {
	var count int
	err := r.DB.(*database.DB).Pool.QueryRow(ctx, "SELECT COUNT(DISTINCT owner_id) FROM links WHERE owner_id IS NOT NULL").Scan(&count)
	return count, err
}

// Ping проверяет доступность базы данных.
func (r *LinkRepository) Ping(ctx context.Context) error {
	_, err := r.DB.(*database.DB).Pool.Exec(ctx, "SELECT 1")
	return err
}
