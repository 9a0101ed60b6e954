package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		Name:     req.Name,
		ParentID: req.ParentID,
		Icon:     req.Icon,
		Color:    req.Color,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": toCategoryPayloads(categories)})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.repo.CreateCategory(r.Context(), req.toCategory())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()

	created, err := s.repo.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryPayload(*created))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := s.repo.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryPayload(*category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := req.toCategory()
	category.ID = id
	if err := s.repo.UpdateCategory(r.Context(), category); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()

	updated, err := s.repo.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryPayload(*updated))
}

// handleDeleteCategory deletes a category. Deletion is blocked with 409
// while transactions, budgets, rules, or child categories reference it.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCategoryChildren(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 404 for a missing parent, not an empty list
	if _, err := s.repo.GetCategory(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	children, err := s.repo.ListChildCategories(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": toCategoryPayloads(children)})
}

func (s *Server) handleCategoryHierarchy(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	roots := buildHierarchy(categories)
	if roots == nil {
		roots = []*categoryNode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": roots})
}
