// Package apitest runs an in-memory stand-in for the Zurura backend for
// tests. It speaks the same routes and error bodies as the real service.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"zurura-client/internal/model"
)

const BasePath = "/a/v1"

type account struct {
	user         model.User
	passwordHash []byte
}

type failure struct {
	status int
	body   string
}

type Server struct {
	srv      *httptest.Server
	secret   []byte
	tokenTTL time.Duration

	mu        sync.Mutex
	accounts  map[string]*account // by lower-cased email
	revoked   map[string]bool     // jti
	routes    []model.Route
	stops     map[string][]model.Stop
	schedules []model.Schedule
	bookings  map[string]*model.Booking
	photos    map[string][]byte
	hits      map[string]int
	failures  map[string]failure
	envelope  bool
}

type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithFailureEnvelope makes failed logins answer 200 with
// {"error": true, "message": ...}, as some deployments do.
func WithFailureEnvelope() Option {
	return func(s *Server) {
		s.envelope = true
	}
}

func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("apitest-" + uuid.NewString()),
		tokenTTL: time.Hour,
		accounts: map[string]*account{},
		revoked:  map[string]bool{},
		stops:    map[string][]model.Stop{},
		bookings: map[string]*model.Booking{},
		photos:   map[string][]byte{},
		hits:     map[string]int{},
		failures: map[string]failure{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base, including /a/v1.
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Route(BasePath, func(api chi.Router) {
		api.Post("/auth/login", s.login)
		api.Post("/auth/register", s.register)
		api.Post("/auth/register/op", s.registerOperator)
		api.Get("/routes", s.listRoutes)
		api.Get("/routes/{id}", s.routeDetails)
		api.Get("/schedules", s.listSchedules)

		api.Group(func(protected chi.Router) {
			protected.Use(s.requireAuth)
			protected.Post("/auth/logout", s.logout)
			protected.Get("/me/profile", s.getProfile)
			protected.Put("/me/profile", s.updateProfile)
			protected.Post("/me/profile/photo", s.uploadPhoto)
			protected.Post("/bookings", s.createBooking)
			protected.Get("/bookings/{id}", s.getBooking)
			protected.Post("/bookings/{id}/cancel", s.cancelBooking)
			protected.Get("/me/bookings", s.myBookings)
		})
	})

	return r
}

// count records the hit and serves a queued failure if there is one.
func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := hitKey(r.Method, r.URL.Path)

		s.mu.Lock()
		s.hits[id]++
		fail, failing := s.failures[id]
		delete(s.failures, id)
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Hits counts requests for method and path, where path excludes /a/v1.
func (s *Server) Hits(method string, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[hitKey(method, BasePath+path)]
}

// FailNext makes the next request to method and path answer status with a
// {"message": ...} body.
func (s *Server) FailNext(method string, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[hitKey(method, BasePath+path)] = failure{
		status: status,
		body:   fmt.Sprintf(`{"message":%q}`, message),
	}
}

// AddUser registers an account directly and returns it with its id.
func (s *Server) AddUser(email string, password string, user model.User) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(email, hash, user)
}

func (s *Server) AddRoute(route model.Route, stops ...model.Stop) model.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	route.CreatedAt, route.UpdatedAt = now, now
	s.routes = append(s.routes, route)
	s.stops[route.ID] = append([]model.Stop(nil), stops...)
	return route
}

func (s *Server) AddSchedule(schedule model.Schedule) model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Bus.ID == "" {
		schedule.Bus.ID = uuid.NewString()
	}
	s.schedules = append(s.schedules, schedule)
	return schedule
}

// SetBookingStatus moves a booking along, e.g. to completed.
func (s *Server) SetBookingStatus(id string, status model.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		b.Status = status
	}
}

// IssueToken signs a token for userID that expires after ttl (which may be
// negative).
func (s *Server) IssueToken(userID string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role model.Role
	for _, acc := range s.accounts {
		if acc.user.ID == userID {
			role = acc.user.Role
		}
	}

	signed, err := s.signLocked(userID, "", role, ttl)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) Photo(userID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photos[userID]
}

func (s *Server) addAccountLocked(email string, hash []byte, user model.User) model.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = model.RoleCommuter
	}
	user.Email = email
	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt, user.UpdatedAt = now, now

	s.accounts[normalizeEmail(email)] = &account{user: user, passwordHash: hash}
	return user
}

func (s *Server) signLocked(userID string, email string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  string(role),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}).SignedString(s.secret)
}

func hitKey(method string, path string) string {
	return method + " " + path
}
