package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pager"
	"github.com/rushteam/melorank/pkg/conv"
)

// UserIDHeader 携带当前用户 ID；鉴权由上游网关完成
const UserIDHeader = "X-User-ID"

var validate = validator.New()

// Handler 实现各个路由
type Handler struct {
	deps Deps
}

type topQuery struct {
	Page  int `validate:"min=0,max=99"` // 每页至少 1 条，第 100 页起必然超出 Top100
	Limit int `validate:"min=1,max=100"`
}

type rankingQuery struct {
	Score     float64
	Member    string `validate:"required"`
	Direction core.Direction
	Limit     int `validate:"min=1,max=100"`
}

type similarQuery struct {
	Window core.CandidateWindow
	Size   int `validate:"min=0,max=1000"`
	Limit  int `validate:"min=0,max=100"`
}

// rankingItem 是榜单中的一行，SongID 在 member 不是数字时为 0
type rankingItem struct {
	Rank   int     `json:"rank"`
	SongID int64   `json:"songId,omitempty"`
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

type rankingCursor struct {
	Score  float64 `json:"score"`
	Member string  `json:"member"`
}

type rankingResponse struct {
	Items []rankingItem  `json:"items"`
	Next  *rankingCursor `json:"next,omitempty"`
}

func toItems(entries []core.RankingEntry, offset int) []rankingItem {
	out := make([]rankingItem, 0, len(entries))
	for i, e := range entries {
		id, _ := conv.ParseMemberID(e.Member)
		out = append(out, rankingItem{Rank: offset + i + 1, SongID: id, Member: e.Member, Score: e.Score})
	}
	return out
}

// intParam 读取整数 query 参数，缺省时返回 def
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func songID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Health 处理 GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Top100 处理 GET /songs/ranking/Top100?page=&limit=
func (h *Handler) Top100(w http.ResponseWriter, r *http.Request) {
	var q topQuery
	var err error
	if q.Page, err = intParam(r, "page", 0); err != nil {
		badRequest(w, r, "page must be an integer")
		return
	}
	if q.Limit, err = intParam(r, "limit", 10); err != nil {
		badRequest(w, r, "limit must be an integer")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(w, r, err.Error())
		return
	}

	entries, err := h.deps.Ranking.TopRanking(r.Context(), q.Page, q.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{Items: toItems(entries, q.Page*q.Limit)})
}

// RankingPage 处理 GET /songs/ranking?score=&member=&direction=&limit=，从游标之后继续读取完整榜单
func (h *Handler) RankingPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := rankingQuery{Member: query.Get("member")}
	if q.Member == "" || query.Get("score") == "" {
		writeError(w, r, core.ErrMissingCursor.Withf("ranking cursor needs score and member"))
		return
	}
	var err error
	if q.Score, err = strconv.ParseFloat(query.Get("score"), 64); err != nil {
		badRequest(w, r, "score must be a number")
		return
	}
	if q.Direction, err = pager.ParseDirection(query.Get("direction")); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Limit, err = intParam(r, "limit", 10); err != nil {
		badRequest(w, r, "limit must be an integer")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(w, r, err.Error())
		return
	}

	entries, err := h.deps.Ranking.PageAfter(r.Context(), q.Score, q.Member, q.Direction, q.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := rankingResponse{Items: toItems(entries, 0)}
	if len(entries) == q.Limit {
		last := entries[len(entries)-1]
		resp.Next = &rankingCursor{Score: last.Score, Member: last.Member}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Similar 处理 GET /songs/{id}/similar?sortType=&direction=&cursor=&size=&limit=
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := songID(r)
	if !ok {
		badRequest(w, r, "song id must be a positive integer")
		return
	}
	query := r.URL.Query()

	var q similarQuery
	var err error
	if q.Window.SortType, err = pager.ParseSortType(query.Get("sortType")); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Window.Direction, err = pager.ParseDirection(query.Get("direction")); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Window.Cursor, err = pager.Decode(query.Get("cursor")); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Size, err = intParam(r, "size", 0); err != nil {
		badRequest(w, r, "size must be an integer")
		return
	}
	if q.Limit, err = intParam(r, "limit", 0); err != nil {
		badRequest(w, r, "limit must be an integer")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	q.Window.Size = q.Size

	res, err := h.deps.Recommender.ScoreSimilar(r.Context(), id, q.Window, q.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ToggleLike 处理 POST /songs/{id}/likes
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := songID(r)
	if !ok {
		badRequest(w, r, "song id must be a positive integer")
		return
	}
	userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(w, r, UserIDHeader+" header must be a positive integer")
		return
	}

	res, err := h.deps.Likes.ToggleLike(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RecordPlay 处理 POST /songs/{id}/plays
func (h *Handler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	id, ok := songID(r)
	if !ok {
		badRequest(w, r, "song id must be a positive integer")
		return
	}
	score, err := h.deps.Ranking.RecordPlay(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songId": id, "score": score})
}
