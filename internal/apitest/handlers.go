package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"zurura-client/internal/model"
)

type ctxKey struct{}

type claims struct {
	userID string
	jti    string
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		parsed := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		sub, _ := parsed.GetSubject()
		jti, _ := parsed["jti"].(string)

		s.mu.Lock()
		revoked := s.revoked[jti]
		s.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "Token revoked")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims{userID: sub, jti: jti})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) claims {
	c, _ := r.Context().Value(ctxKey{}).(claims)
	return c
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	acc, exists := s.accounts[normalizeEmail(req.Email)]
	var found account
	if exists {
		found = *acc
	}
	s.mu.Unlock()

	if !exists || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(req.Password)) != nil {
		if s.envelope {
			writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": "Invalid credentials"})
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	s.issue(w, http.StatusOK, found.user)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.createAccount(w, req.Email, req.Password, model.User{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		SchoolName: req.SchoolName,
		Role:       model.RoleCommuter,
	})
}

func (s *Server) registerOperator(w http.ResponseWriter, r *http.Request) {
	var req model.OperatorRegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.createAccount(w, req.Email, req.Password, model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleOperator,
	})
}

func (s *Server) createAccount(w http.ResponseWriter, email string, password string, user model.User) {
	if normalizeEmail(email) == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not gen hash")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[normalizeEmail(email)]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Email already exists")
		return
	}
	created := s.addAccountLocked(email, hash, user)
	s.mu.Unlock()

	s.issue(w, http.StatusCreated, created)
}

func (s *Server) issue(w http.ResponseWriter, status int, user model.User) {
	s.mu.Lock()
	token, err := s.signLocked(user.ID, user.Email, user.Role, s.tokenTTL)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}
	writeJSON(w, status, map[string]any{"token": token, "user": user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.revoked[claimsFrom(r).jti] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.Message{Message: "Successfully logged out"})
}

func (s *Server) accountFor(r *http.Request) (*account, bool) {
	userID := claimsFrom(r).userID
	for _, acc := range s.accounts {
		if acc.user.ID == userID {
			return acc, true
		}
	}
	return nil, false
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc, ok := s.accountFor(r)
	var user model.User
	if ok {
		user = acc.user
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfilePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	s.mu.Lock()
	acc, ok := s.accountFor(r)
	var user model.User
	if ok {
		acc.user = patch.Apply(acc.user)
		acc.user.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		user = acc.user
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url := "/uploads/" + uuid.NewString() + "-" + header.Filename

	s.mu.Lock()
	acc, ok := s.accountFor(r)
	if ok {
		acc.user.ProfilePhotoURL = url
		s.photos[acc.user.ID] = data
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, model.PhotoUpload{URL: url})
}

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := strings.ToLower(q.Get("origin"))
	destination := strings.ToLower(q.Get("destination"))

	limit, err := intParam(q.Get("limit"), 10)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	s.mu.Lock()
	matched := make([]model.Route, 0, len(s.routes))
	for _, route := range s.routes {
		if origin != "" && !strings.Contains(strings.ToLower(route.Origin), origin) {
			continue
		}
		if destination != "" && !strings.Contains(strings.ToLower(route.Destination), destination) {
			continue
		}
		matched = append(matched, route)
	}
	s.mu.Unlock()

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, model.RouteList{
		Routes:     matched[start:end],
		Pagination: &model.Pagination{Total: total, Limit: limit, Offset: start},
	})
}

func (s *Server) routeDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, route := range s.routes {
		if route.ID == id {
			stops := s.stops[id]
			if stops == nil {
				stops = []model.Stop{}
			}
			writeJSON(w, http.StatusOK, model.RouteDetails{Route: route, Stops: stops})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Route not found")
}

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("route_id")

	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		day = parsed
	}

	s.mu.Lock()
	out := []model.Schedule{}
	for _, schedule := range s.schedules {
		if routeID != "" && schedule.RouteID != routeID {
			continue
		}
		if !day.IsZero() && schedule.DepartureTime.UTC().Format("2006-01-02") != day.Format("2006-01-02") {
			continue
		}
		out = append(out, schedule)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Seats.Valid() || req.Seats.Count <= 0 {
		writeError(w, http.StatusBadRequest, "invalid seats")
		return
	}
	if !req.PaymentMethod.Valid() {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var schedule *model.Schedule
	for i := range s.schedules {
		if s.schedules[i].Bus.ID == req.BusID {
			schedule = &s.schedules[i]
			break
		}
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Bus not found")
		return
	}
	if schedule.Bus.AvailableSeats < req.Seats.Count {
		writeError(w, http.StatusConflict, "only "+strconv.Itoa(schedule.Bus.AvailableSeats)+" available")
		return
	}

	var baseFare model.Amount
	for _, route := range s.routes {
		if route.ID == schedule.RouteID {
			baseFare = route.BaseFare
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	booking := &model.Booking{
		ID:        uuid.NewString(),
		UserID:    claimsFrom(r).userID,
		BusID:     req.BusID,
		RouteID:   schedule.RouteID,
		Seats:     model.NewSeats(req.Seats.SeatNumbers...),
		Fare:      model.QuoteFare(baseFare, req.Seats),
		Status:    model.BookingPending,
		CreatedAt: now,
		ExpiresAt: now.Add(15 * time.Minute),
	}
	s.bookings[booking.ID] = booking
	schedule.Bus.AvailableSeats -= req.Seats.Count

	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) ownBooking(w http.ResponseWriter, r *http.Request) (*model.Booking, bool) {
	booking, ok := s.bookings[chi.URLParam(r, "id")]
	if !ok || booking.UserID != claimsFrom(r).userID {
		writeError(w, http.StatusNotFound, "Booking not found")
		return nil, false
	}
	return booking, true
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking, ok := s.ownBooking(w, r); ok {
		writeJSON(w, http.StatusOK, booking)
	}
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.ownBooking(w, r)
	if !ok {
		return
	}
	if !booking.Cancellable() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"message": "Booking cannot be cancelled",
			"details": "status is " + string(booking.Status),
		})
		return
	}

	booking.Status = model.BookingCancelled
	for i := range s.schedules {
		if s.schedules[i].Bus.ID == booking.BusID {
			s.schedules[i].Bus.AvailableSeats += booking.Seats.Count
		}
	}
	writeJSON(w, http.StatusOK, model.Message{Message: "Booking cancelled"})
}

func (s *Server) myBookings(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r).userID

	s.mu.Lock()
	out := []model.Booking{}
	for _, booking := range s.bookings {
		if booking.UserID == userID {
			out = append(out, *booking)
		}
	}
	s.mu.Unlock()

	// Newest first.
	slices.SortStableFunc(out, func(a, b model.Booking) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	writeJSON(w, http.StatusOK, out)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
