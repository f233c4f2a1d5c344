package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Totarae/Bitlytics/internal/model"
	"github.com/Totarae/Bitlytics/internal/normalizer"
	"github.com/Totarae/Bitlytics/internal/repositories"
	"github.com/Totarae/Bitlytics/internal/shortcode"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCustomCode — пользовательский код не прошёл проверку формата.
	ErrInvalidCustomCode = errors.New("custom code must be 3-20 characters long and contain only letters, numbers, and hyphens")
	// ErrReservedCode — код совпадает с системным маршрутом.
	ErrReservedCode = errors.New("this custom code is reserved and cannot be used")
	// ErrCodeTaken — код уже занят другой ссылкой.
	ErrCodeTaken = errors.New("this custom code is already taken")
	// ErrGenerationExhausted — все попытки генерации дали коллизию.
	// Транзиентная ошибка: запрос на создание можно повторить целиком.
	ErrGenerationExhausted = errors.New("failed to generate unique short code")
)

// maxGenerateAttempts — предел попыток генерации случайного кода.
const maxGenerateAttempts = 10

// CreatorRepo — подмножество репозитория, нужное для создания ссылок.
type CreatorRepo interface {
	SaveLink(ctx context.Context, link *model.ShortLink) error
	LinkExists(ctx context.Context, code string) (bool, error)
}

// CreateRequest — входные данные создания ссылки.
type CreateRequest struct {
	OriginalURL string
	CustomCode  string
	Title       string
	Description string
	Owner       *string
}

// CreateResult — код и нормализованное назначение созданной ссылки.
type CreateResult struct {
	Code        string
	Destination string
}

// Creator валидирует вход и сохраняет новую короткую ссылку.
type Creator struct {
	Repo       CreatorRepo
	Logger     *zap.Logger
	Production bool
}

// NewCreator создаёт Creator. В production-режиме нормализатор
// отклоняет localhost и приватные адреса.
func NewCreator(repo CreatorRepo, logger *zap.Logger, production bool) *Creator {
	return &Creator{Repo: repo, Logger: logger, Production: production}
}

// Create нормализует URL, подбирает код и сохраняет ссылку.
func (s *Creator) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	destination, err := normalizer.Normalize(req.OriginalURL, s.Production)
	if err != nil {
		return nil, err
	}

	var code string
	if req.CustomCode != "" {
		code, err = s.validateCustomCode(ctx, strings.TrimSpace(req.CustomCode))
	} else {
		code, err = s.uniqueCode(ctx)
	}
	if err != nil {
		return nil, err
	}

	link := &model.ShortLink{
		Code:        code,
		Destination: destination,
		Owner:       req.Owner,
		Title:       req.Title,
		Description: req.Description,
		Active:      true,
		Created:     time.Now(),
		Updated:     time.Now(),
	}
	if err := s.Repo.SaveLink(ctx, link); err != nil {
		// Гонка двух создателей одного кода решается уникальным индексом
		if errors.Is(err, repositories.ErrDuplicateCode) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("save link: %w", err)
	}

	s.Logger.Info("short link created",
		zap.String("code", code), zap.Bool("custom", req.CustomCode != ""))

	return &CreateResult{Code: code, Destination: destination}, nil
}

func (s *Creator) validateCustomCode(ctx context.Context, code string) (string, error) {
	if !shortcode.IsValidCustomCode(code) {
		return "", ErrInvalidCustomCode
	}
	if shortcode.IsReservedCode(code) {
		return "", ErrReservedCode
	}
	taken, err := s.Repo.LinkExists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("check custom code: %w", err)
	}
	if taken {
		return "", ErrCodeTaken
	}
	return code, nil
}

// uniqueCode генерирует код и сверяет его с хранилищем,
// повторяя не более maxGenerateAttempts раз.
func (s *Creator) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := shortcode.Generate(shortcode.DefaultLength)
		if err != nil {
			return "", err
		}
		taken, err := s.Repo.LinkExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check generated code: %w", err)
		}
		if !taken {
			return code, nil
		}
		s.Logger.Warn("generated code collided, retrying",
			zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return "", ErrGenerationExhausted
}
