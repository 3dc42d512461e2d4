package service

import (
	"context"
	"net/http"
	"time"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// UserService serves registration, login and preferences
type UserService struct {
	users *biz.UserUseCase
	log   *log.Helper
}

// NewUserService creates a new UserService
func NewUserService(users *biz.UserUseCase, logger log.Logger) *UserService {
	return &UserService{
		users: users,
		log:   log.NewHelper(logger),
	}
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*RegisterReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	u, err := s.users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &RegisterReply{UserItem: *userToItem(u)}, nil
}

// Login checks credentials. The returned user id is what clients send as
// their identity on later requests.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	u, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &LoginReply{User: userToItem(u)}, nil
}

func (s *UserService) SetPreference(ctx context.Context, req *SetPreferenceRequest) (*PreferenceReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	pref, err := s.users.SetPreference(ctx, UserIDFromContext(ctx), req.Genre)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &PreferenceReply{
		Genre:            pref.Genre,
		LastWatchedMovie: pref.LastWatchedMovie,
		LastWatchedShow:  pref.LastWatchedShow,
	}, nil
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports process and database health
type HealthService struct {
	db  Pinger
	log *log.Helper
}

func NewHealthService(db Pinger, logger log.Logger) *HealthService {
	return &HealthService{
		db:  db,
		log: log.NewHelper(logger),
	}
}

func (s *HealthService) Check(ctx context.Context, _ *HealthRequest) (*HealthReply, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reply := &HealthReply{
		Status:    "ok",
		Timestamp: time.Now(),
	}
	reply.DB.Status = "ok"

	if err := s.db.Ping(ctx); err != nil {
		s.log.Warnf("database ping failed: %v", err)
		reply.Status = "degraded"
		reply.DB.Status = "error"
		reply.DB.Message = "database ping failed"
		reply.code = http.StatusServiceUnavailable
	}
	return reply, nil
}
