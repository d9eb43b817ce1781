package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

type createDeckRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Subject     string `json:"subject" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type addCardRequest struct {
	Front      string            `json:"front" validate:"required"`
	Back       string            `json:"back" validate:"required"`
	Hint       string            `json:"hint"`
	Difficulty models.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.DeckService.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(decks))
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.CreateDeck(r.Context(), models.Deck{
		Name:        req.Name,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("deck %d created", deck.ID)
	writeJSON(w, r, http.StatusCreated, deck)
}

// deckFromPath resolves {id}, which may be the numeric id or the public id.
func (s *Server) deckFromPath(r *http.Request) (*models.Deck, error) {
	return s.DeckService.GetDeck(r.Context(), chi.URLParam(r, "id"))
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.deckFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.deckFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.DeckService.DeleteDeck(r.Context(), deck.ID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	deck, err := s.deckFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.DeckService.ListCards(r.Context(), deck.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(cards))
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	deck, err := s.deckFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req addCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.DeckService.AddCard(r.Context(), models.Card{
		DeckID:     deck.ID,
		Front:      req.Front,
		Back:       req.Back,
		Hint:       req.Hint,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	deckID, err := queryInt64(r, "deck")
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.DeckService.DueCards(r.Context(), deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(cards))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	deckID, err := queryInt64(r, "deck")
	if err != nil {
		handleError(w, r, err)
		return
	}
	stats, err := s.DeckService.Stats(r.Context(), deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
