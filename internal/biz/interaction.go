package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// InteractionUseCase records comments, likes and watch history
type InteractionUseCase struct {
	contentRepo ContentRepo
	commentRepo CommentRepo
	historyRepo WatchHistoryRepo
	userRepo    UserRepo
	tx          Transaction
	log         *log.Helper
}

// NewInteractionUseCase creates a new InteractionUseCase instance
func NewInteractionUseCase(contentRepo ContentRepo, commentRepo CommentRepo, historyRepo WatchHistoryRepo, userRepo UserRepo, tx Transaction, logger log.Logger) *InteractionUseCase {
	return &InteractionUseCase{
		contentRepo: contentRepo,
		commentRepo: commentRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		tx:          tx,
		log:         log.NewHelper(logger),
	}
}

// checkActor verifies the user and the content both exist.
func (uc *InteractionUseCase) checkActor(ctx context.Context, userID string, ref ContentRef) error {
	if _, err := uc.contentRepo.GetContent(ctx, ref); err != nil {
		return err
	}
	if _, err := uc.userRepo.GetUser(ctx, userID); err != nil {
		return err
	}
	return nil
}

// AddComment posts a comment on a movie or show
func (uc *InteractionUseCase) AddComment(ctx context.Context, userID string, ref ContentRef, text string) (*Comment, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidArgument)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	comment := &Comment{
		ID:        id,
		UserID:    userID,
		Ref:       ref,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.checkActor(ctx, userID, ref); err != nil {
			return err
		}
		return uc.commentRepo.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns comments for a content item, newest first or by likes.
func (uc *InteractionUseCase) ListComments(ctx context.Context, ref ContentRef, sort CommentSort) ([]*Comment, error) {
	if _, err := uc.contentRepo.GetContent(ctx, ref); err != nil {
		return nil, err
	}
	comments, err := uc.commentRepo.ListComments(ctx, ref, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// LikeComment counts one like per user per comment; repeats are no-ops.
func (uc *InteractionUseCase) LikeComment(ctx context.Context, userID, commentID string) (*Comment, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var comment *Comment
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.userRepo.GetUser(ctx, userID); err != nil {
			return err
		}
		if _, err := uc.commentRepo.GetComment(ctx, commentID); err != nil {
			return err
		}
		added, err := uc.commentRepo.AddLike(ctx, userID, commentID)
		if err != nil {
			return fmt.Errorf("failed to like comment: %w", err)
		}
		if !added {
			uc.log.Debugf("user %s already liked comment %s", userID, commentID)
		}
		comment, err = uc.commentRepo.GetComment(ctx, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// AddWatchHistory appends a viewing record and, for users with a
// preference, remembers it as the last watched item of its kind.
func (uc *InteractionUseCase) AddWatchHistory(ctx context.Context, userID string, ref ContentRef) (*WatchHistoryEntry, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	entry := &WatchHistoryEntry{
		ID:        id,
		UserID:    userID,
		Ref:       ref,
		WatchedAt: time.Now().UTC(),
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.checkActor(ctx, userID, ref); err != nil {
			return err
		}
		if err := uc.historyRepo.CreateWatchHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to record watch history: %w", err)
		}

		pref, err := uc.userRepo.GetPreference(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		contentID := ref.ID
		if ref.Kind == KindMovie {
			pref.LastWatchedMovie = &contentID
		} else {
			pref.LastWatchedShow = &contentID
		}
		return uc.userRepo.SavePreference(ctx, pref)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListWatchHistory returns a user's viewing log, newest first.
func (uc *InteractionUseCase) ListWatchHistory(ctx context.Context, userID string) ([]*WatchHistoryEntry, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := uc.userRepo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := uc.historyRepo.ListWatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}
	return entries, nil
}
