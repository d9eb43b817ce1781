package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// StudyStats combines card aggregates with the daily review streak.
type StudyStats struct {
	Cards  models.DeckStat    `json:"cards"`
	Streak models.StudyStreak `json:"streak"`
}

// DeckService handles decks, their cards and progress statistics
type DeckService interface {
	ListDecks(ctx context.Context) ([]models.Deck, error)
	CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error)
	// GetDeck accepts a numeric id or a public id.
	GetDeck(ctx context.Context, ref string) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id int64) error
	ListCards(ctx context.Context, deckID int64) ([]models.Card, error)
	AddCard(ctx context.Context, card models.Card) (*models.Card, error)
	DueCards(ctx context.Context, deckID *int64) ([]models.Card, error)
	Stats(ctx context.Context, deckID *int64) (*StudyStats, error)
}

type deckService struct {
	deckRepo   repository.DeckRepository
	cardRepo   repository.CardRepository
	reviewRepo repository.ReviewRepository
	now        func() time.Time
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, reviewRepo repository.ReviewRepository) DeckService {
	return &deckService{deckRepo: deckRepo, cardRepo: cardRepo, reviewRepo: reviewRepo, now: time.Now}
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks")

	decks, err := s.deckRepo.List(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating deck: name=%s", deck.Name)

	deck.Name = strings.TrimSpace(deck.Name)
	deck.Subject = strings.TrimSpace(deck.Subject)
	if deck.Name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	created, err := s.deckRepo.Insert(ctx, deck)
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return created, nil
}

func (s *deckService) GetDeck(ctx context.Context, ref string) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting deck: ref=%s", ref)

	var (
		deck *models.Deck
		err  error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		deck, err = s.deckRepo.Get(ctx, id)
	} else {
		deck, err = s.deckRepo.GetByPublicID(ctx, ref)
	}
	if err != nil {
		return nil, repoError(log, err, "deck", ref)
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: id=%d", id)

	if err := s.deckRepo.Delete(ctx, id); err != nil {
		return repoError(log, err, "deck", id)
	}
	return nil
}

func (s *deckService) ListCards(ctx context.Context, deckID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing cards: deck_id=%d", deckID)

	if _, err := s.deckRepo.Get(ctx, deckID); err != nil {
		return nil, repoError(log, err, "deck", deckID)
	}
	cards, err := s.cardRepo.ListByDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *deckService) AddCard(ctx context.Context, card models.Card) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("adding card: deck_id=%d", card.DeckID)

	card.Front = strings.TrimSpace(card.Front)
	card.Back = strings.TrimSpace(card.Back)
	if card.Front == "" {
		return nil, errors.NewValidationError("front", "cannot be empty")
	}
	if card.Back == "" {
		return nil, errors.NewValidationError("back", "cannot be empty")
	}
	if card.Difficulty == "" {
		card.Difficulty = models.DifficultyMedium
	}
	if !card.Difficulty.Valid() {
		return nil, errors.NewValidationError("difficulty", "must be easy, medium or hard")
	}

	if _, err := s.deckRepo.Get(ctx, card.DeckID); err != nil {
		return nil, repoError(log, err, "deck", card.DeckID)
	}

	// new cards are due right away and start from a clean schedule
	card.RepetitionCount = 0
	card.EaseFactor = flashcard.DefaultEaseFactor
	card.IntervalDays = 0
	card.NextReviewDate = flashcard.StartOfDay(s.now())
	card.LastReviewedAt = nil
	card.TimesReviewed = 0
	card.TimesCorrect = 0

	id, err := s.cardRepo.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	created, err := s.cardRepo.Get(ctx, id)
	if err != nil {
		return nil, repoError(log, err, "card", id)
	}
	return created, nil
}

func (s *deckService) DueCards(ctx context.Context, deckID *int64) ([]models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading due cards")

	cards, err := s.cardRepo.LoadDueCards(ctx, deckID, s.now())
	if err != nil {
		log.Error("failed to load due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *deckService) Stats(ctx context.Context, deckID *int64) (*StudyStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing study stats")

	now := s.now()
	stat, err := s.deckRepo.Stats(ctx, deckID, now)
	if err != nil {
		log.Error("failed to get deck stats: %v", err)
		return nil, errors.NewInternalError(err)
	}

	days, err := s.reviewRepo.StudyDays(ctx)
	if err != nil {
		log.Error("failed to get study days: %v", err)
		return nil, errors.NewInternalError(err)
	}

	current, longest := flashcard.DailyStreak(days, now)
	streak := models.StudyStreak{Current: current, Longest: longest}
	if len(days) > 0 {
		last := days[len(days)-1]
		streak.LastStudy = &last
	}
	return &StudyStats{Cards: *stat, Streak: streak}, nil
}
