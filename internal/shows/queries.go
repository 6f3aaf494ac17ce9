package shows

import (
	"context"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
)

// FeedRequest filters the main feed
type FeedRequest struct {
	Category models.Category `json:"province,omitempty"`
	Kind     models.ShowKind `json:"type,omitempty"`
	Batch    string          `json:"batch,omitempty"`
	// Cursor is the id of the last show of the previous page
	Cursor string `json:"cursor,omitempty"`
}

// FeedPage is one page of the feed. NextCursor is empty on the last page.
type FeedPage struct {
	Shows      []*models.Show `json:"posts"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// Feed returns approved shows by competing members, newest first
func (s *Service) Feed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	fq := db.FeedQuery{
		AuthorRoles: s.opts.EligibleRoles,
		Category:    req.Category,
		Kind:        req.Kind,
		Batch:       req.Batch,
		Limit:       FeedPageSize,
	}
	if req.Cursor != "" {
		after, err := s.repo.Shows().GetByID(ctx, req.Cursor)
		if err != nil {
			return nil, errs.FromStore(err, "load cursor")
		}
		if after == nil {
			return nil, errs.Validation("invalid cursor %q", req.Cursor)
		}
		fq.After = after
	}

	shows, err := s.repo.Shows().Feed(ctx, fq)
	if err != nil {
		return nil, errs.FromStore(err, "load feed")
	}
	if err := s.attachCounts(ctx, shows); err != nil {
		return nil, err
	}

	page := &FeedPage{Shows: shows}
	if page.Shows == nil {
		page.Shows = []*models.Show{}
	}
	if len(shows) == FeedPageSize {
		page.NextCursor = shows[len(shows)-1].ID
	}
	return page, nil
}

// Featured returns the newest approved shows by senior members
func (s *Service) Featured(ctx context.Context) ([]*models.Show, error) {
	if len(s.opts.FeaturedRoles) == 0 {
		return []*models.Show{}, nil
	}
	shows, err := s.repo.Shows().Feed(ctx, db.FeedQuery{AuthorRoles: s.opts.FeaturedRoles, Limit: FeaturedLimit})
	if err != nil {
		return nil, errs.FromStore(err, "load featured")
	}
	if err := s.attachCounts(ctx, shows); err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []*models.Show{}
	}
	return shows, nil
}

// ByAuthor lists a member's shows. Pending shows are included only for the
// author and admins.
func (s *Service) ByAuthor(ctx context.Context, viewerID, authorID string) ([]*models.Show, error) {
	privileged, err := s.canSeePending(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	shows, err := s.repo.Shows().ByAuthor(ctx, authorID, !privileged)
	if err != nil {
		return nil, errs.FromStore(err, "load shows")
	}
	if err := s.attachCounts(ctx, shows); err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []*models.Show{}
	}
	return shows, nil
}

// Get returns a show with its likers and suggestions. A pending show is
// visible only to its author and admins.
func (s *Service) Get(ctx context.Context, viewerID, showID string) (*models.Show, error) {
	show, err := loadShow(ctx, s.repo, showID)
	if err != nil {
		return nil, err
	}
	if !show.Approved {
		ok, err := s.canSeePending(ctx, viewerID, show.AuthorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.NotFound("show %s not found", showID)
		}
	}

	likes, err := s.repo.Likes().Likers(ctx, showID)
	if err != nil {
		return nil, errs.FromStore(err, "load likes")
	}
	suggestions, err := s.repo.Suggestions().ListByShow(ctx, showID)
	if err != nil {
		return nil, errs.FromStore(err, "load suggestions")
	}
	show.Likes = likes
	show.Suggestions = suggestions
	show.LikeCount = int64(len(likes))
	show.SuggestionCount = int64(len(suggestions))
	return show, nil
}

// Pending lists shows awaiting moderation. Admin only.
func (s *Service) Pending(ctx context.Context, actorID string) ([]*models.Show, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, errs.Permission("only admins can moderate shows")
	}
	shows, err := s.repo.Shows().Pending(ctx, 100)
	if err != nil {
		return nil, errs.FromStore(err, "load pending shows")
	}
	if err := s.attachCounts(ctx, shows); err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []*models.Show{}
	}
	return shows, nil
}

func (s *Service) canSeePending(ctx context.Context, viewerID, authorID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	if viewerID == authorID {
		return true, nil
	}
	viewer, err := s.repo.Members().GetByID(ctx, viewerID)
	if err != nil {
		return false, errs.FromStore(err, "load member")
	}
	return viewer != nil && viewer.Role == models.RoleAdmin, nil
}

func (s *Service) attachCounts(ctx context.Context, shows []*models.Show) error {
	if len(shows) == 0 {
		return nil
	}
	ids := make([]string, len(shows))
	for i, sh := range shows {
		ids[i] = sh.ID
	}
	likes, err := s.repo.Likes().CountByShows(ctx, ids)
	if err != nil {
		return errs.FromStore(err, "count likes")
	}
	suggestions, err := s.repo.Suggestions().CountByShows(ctx, ids)
	if err != nil {
		return errs.FromStore(err, "count suggestions")
	}
	for _, sh := range shows {
		sh.LikeCount = likes[sh.ID]
		sh.SuggestionCount = suggestions[sh.ID]
	}
	return nil
}
