package api

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/dccc/clubhouse/internal/auth"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/members"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/shows"
)

// identity returns the signed-in caller
func (r *Router) identity(c *gin.Context) (*auth.Identity, error) {
	id, ok := auth.FromContext(c)
	if !ok {
		return nil, errs.Permission("sign in required")
	}
	return id, nil
}

// actor returns the uid of a signed-in caller allowed to act
func (r *Router) actor(c *gin.Context) (string, error) {
	id, err := r.identity(c)
	if err != nil {
		return "", err
	}
	if r.opts.RequireVerifiedEmail && !id.EmailVerified {
		return "", errs.Permission("verify your email address first")
	}
	return id.UID, nil
}

// viewer returns the caller's uid, or "" for anonymous reads
func viewer(c *gin.Context) string {
	if id, ok := auth.FromContext(c); ok {
		return id.UID
	}
	return ""
}

type idParams struct {
	ID string `json:"id"`
}

func (p idParams) require() error {
	if p.ID == "" {
		return errs.Validation("id is required")
	}
	return nil
}

type memberParams struct {
	UID string `json:"uid"`
}

// --- members ---

func (r *Router) register(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := r.identity(c)
	if err != nil {
		return nil, err
	}
	var req members.RegisterRequest
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	req.ID = id.UID
	req.Email = id.Email
	return r.svc.Members.Register(c.Request.Context(), req)
}

func (r *Router) getProfile(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p memberParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = viewer(c)
	}
	if p.UID == "" {
		return nil, errs.Validation("uid is required")
	}
	return r.svc.Members.Profile(c.Request.Context(), viewer(c), p.UID)
}

func (r *Router) setRole(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p struct {
		UID  string      `json:"uid"`
		Role models.Role `json:"role"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return r.svc.Members.SetRole(c.Request.Context(), actorID, p.UID, p.Role)
}

func (r *Router) recalculate(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p memberParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = actorID
	}
	return r.svc.Members.Recalculate(c.Request.Context(), actorID, p.UID)
}

// --- shows ---

func (r *Router) submitShow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var req shows.SubmitRequest
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return r.svc.Shows.Submit(c.Request.Context(), actorID, req)
}

func (r *Router) getShow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p idParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.require(); err != nil {
		return nil, err
	}
	return r.svc.Shows.Get(c.Request.Context(), viewer(c), p.ID)
}

func (r *Router) getFeed(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var req shows.FeedRequest
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return r.svc.Shows.Feed(c.Request.Context(), req)
}

func (r *Router) getFeatured(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	return r.svc.Shows.Featured(c.Request.Context())
}

func (r *Router) getShowsByAuthor(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p memberParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		return nil, errs.Validation("uid is required")
	}
	return r.svc.Shows.ByAuthor(c.Request.Context(), viewer(c), p.UID)
}

func (r *Router) listPendingShows(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	return r.svc.Shows.Pending(c.Request.Context(), actorID)
}

func (r *Router) toggleLike(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p idParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.require(); err != nil {
		return nil, err
	}
	return r.svc.Shows.ToggleLike(c.Request.Context(), actorID, p.ID)
}

func (r *Router) addSuggestion(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errs.Validation("id is required")
	}
	return r.svc.Shows.AddSuggestion(c.Request.Context(), actorID, p.ID, p.Text)
}

func (r *Router) setApproval(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p struct {
		ID       string `json:"id"`
		Approved *bool  `json:"approved"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" || p.Approved == nil {
		return nil, errs.Validation("id and approved are required")
	}
	return r.svc.Shows.SetApproval(c.Request.Context(), actorID, p.ID, *p.Approved)
}

func (r *Router) deleteShow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p idParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.require(); err != nil {
		return nil, err
	}
	if err := r.svc.Shows.Delete(c.Request.Context(), actorID, p.ID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": p.ID}, nil
}

// --- leaderboard ---

func (r *Router) getLeaderboard(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Archive string `json:"archive"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.Archive != "" {
		return r.svc.Leaderboard.Archived(c.Request.Context(), p.Archive)
	}
	return r.svc.Leaderboard.Current(c.Request.Context())
}

func (r *Router) listArchives(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	return r.svc.Leaderboard.ListArchives(c.Request.Context())
}

func (r *Router) resetLeaderboard(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	return r.svc.Archive.Reset(c.Request.Context(), actorID)
}

func (r *Router) bestShow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		UID   string `json:"uid"`
		Month string `json:"month"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		return nil, errs.Validation("uid is required")
	}
	return r.svc.Archive.BestShowInMonth(c.Request.Context(), p.UID, p.Month)
}

// --- promotions ---

func (r *Router) requestPromotion(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	return r.svc.Members.RequestPromotion(c.Request.Context(), actorID)
}

func (r *Router) listPromotions(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	return r.svc.Members.ListPromotions(c.Request.Context(), actorID)
}

func (r *Router) approvePromotion(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return r.resolvePromotion(c, params, r.svc.Members.ApprovePromotion)
}

func (r *Router) rejectPromotion(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return r.resolvePromotion(c, params, r.svc.Members.RejectPromotion)
}

func (r *Router) resolvePromotion(c *gin.Context, params json.RawMessage,
	resolve func(ctx context.Context, actorID, requestID string) (*models.PromotionRequest, error)) (interface{}, error) {
	actorID, err := r.actor(c)
	if err != nil {
		return nil, err
	}
	var p idParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.require(); err != nil {
		return nil, err
	}
	return resolve(c.Request.Context(), actorID, p.ID)
}

// --- notifications ---

func (r *Router) listNotifications(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	id, err := r.identity(c)
	if err != nil {
		return nil, err
	}
	return r.svc.Inbox.List(c.Request.Context(), id.UID)
}

func (r *Router) markNotificationsRead(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := r.identity(c)
	if err != nil {
		return nil, err
	}
	var p struct {
		IDs []int64 `json:"ids"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	n, err := r.svc.Inbox.MarkRead(c.Request.Context(), id.UID, p.IDs)
	if err != nil {
		return nil, err
	}
	return gin.H{"updated": n}, nil
}

func (r *Router) deleteNotification(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := r.identity(c)
	if err != nil {
		return nil, err
	}
	var p struct {
		ID int64 `json:"id"`
	}
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID <= 0 {
		return nil, errs.Validation("id is required")
	}
	if err := r.svc.Inbox.Delete(c.Request.Context(), id.UID, p.ID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": p.ID}, nil
}

func (r *Router) clearNotifications(c *gin.Context, _ json.RawMessage) (interface{}, error) {
	id, err := r.identity(c)
	if err != nil {
		return nil, err
	}
	n, err := r.svc.Inbox.Clear(c.Request.Context(), id.UID)
	if err != nil {
		return nil, err
	}
	return gin.H{"deleted": n}, nil
}
