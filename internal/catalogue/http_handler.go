package catalogue

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookcatalogue/internal/httpx"

	"go.uber.org/zap"
)

const dateRangeExample = "/api/books/date-range?start=2022-01-01&end=2023-12-31"

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// Register binds every catalogue route on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", h.ListBooks)
	mux.HandleFunc("POST /api/books", h.CreateBook)
	mux.HandleFunc("GET /api/books/featured", h.ListFeatured)
	mux.HandleFunc("GET /api/books/top-rated", h.ListTopRated)
	mux.HandleFunc("GET /api/books/date-range", h.ListByDateRange)
	mux.HandleFunc("GET /api/books/{id}", h.GetBook)
	mux.HandleFunc("GET /api/books/{id}/reviews", h.ListBookReviews)
	mux.HandleFunc("GET /api/reviews", h.ListReviews)
	mux.HandleFunc("POST /api/reviews", h.CreateReview)
}

// ListBooks handles GET /api/books
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books [get]
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetAllBooks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// GetBook handles GET /api/books/{id}
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id} [get]
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBookByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// ListFeatured handles GET /api/books/featured
// @Summary List featured books
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/featured [get]
func (h *HTTPHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetFeaturedBooks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// ListTopRated handles GET /api/books/top-rated
// @Summary List the highest ranked books by rating × review count
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/top-rated [get]
func (h *HTTPHandler) ListTopRated(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetTopRatedBooks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{
		"total":    len(books),
		"criteria": TopRatedCriteria,
	})
}

// ListByDateRange handles GET /api/books/date-range?start=YYYY-MM-DD&end=YYYY-MM-DD
// @Summary List books published within a date range
// @Tags books
// @Produce json
// @Param start query string true "Start date (inclusive)"
// @Param end query string true "End date (inclusive)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books/date-range [get]
func (h *HTTPHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	books, err := h.service.GetBooksInDateRange(r.Context(), start, end)
	if err != nil {
		h.writeErrorWithMeta(w, r, err, map[string]any{"example": dateRangeExample})
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{
		"total":      len(books),
		"date_range": map[string]string{"start": start, "end": end},
	})
}

// ListBookReviews handles GET /api/books/{id}/reviews
// @Summary List reviews of a book
// @Tags reviews
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id}/reviews [get]
func (h *HTTPHandler) ListBookReviews(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetReviewsForBook(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, result.Reviews, map[string]any{
		"book_id":    result.BookID,
		"book_title": result.BookTitle,
		"total":      result.Total,
	})
}

// ListReviews handles GET /api/reviews
// @Summary List all reviews
// @Tags reviews
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/reviews [get]
func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetAllReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, reviews, map[string]any{"total": len(reviews)})
}

// CreateBook handles POST /api/books
// @Summary Add a book to the catalogue
// @Tags books
// @Accept json
// @Produce json
// @Param request body BookInput true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books [post]
func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var in BookInput
	if !h.decode(w, r, &in) {
		return
	}
	book, err := h.service.AddBook(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, book, map[string]any{"message": "Book added successfully"})
}

// CreateReview handles POST /api/reviews
// @Summary Add a review for a book
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body ReviewInput true "Review"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/reviews [post]
func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in ReviewInput
	if !h.decode(w, r, &in) {
		return
	}
	review, err := h.service.AddReview(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, review, map[string]any{"message": "Review added successfully"})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
		return false
	}
	httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	return false
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorWithMeta(w, r, err, nil)
}

// writeErrorWithMeta maps err to its status and code. meta is attached to
// the 400 responses only.
func (h *HTTPHandler) writeErrorWithMeta(w http.ResponseWriter, r *http.Request, err error, meta map[string]any) {
	var missing *MissingFieldsError
	var argErr *ArgumentError

	switch {
	case errors.As(err, &missing):
		details := make([]httpx.ErrorDetail, len(missing.Fields))
		for i, f := range missing.Fields {
			details[i] = httpx.ErrorDetail{Field: f, Message: f + " is required"}
		}
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "MISSING_FIELDS", missing.Error(), details, meta)
	case errors.Is(err, ErrInvalidDateFormat):
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "INVALID_DATE_FORMAT",
			"Invalid date format. Use YYYY-MM-DD format", nil, meta)
	case errors.Is(err, ErrInvalidRange):
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "INVALID_RANGE", "Start date must be before or equal to end date", nil, meta)
	case errors.Is(err, ErrInvalidRating):
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "INVALID_RATING", "Rating must be a number between 1 and 5", nil, meta)
	case errors.As(err, &argErr):
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", argErr.Error(),
			[]httpx.ErrorDetail{{Field: argErr.Field, Message: argErr.Reason}}, meta)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	default:
		h.logger.Error("catalogue request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
