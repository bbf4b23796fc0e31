package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"giveaway/internal/membership"
	"giveaway/internal/models"
	"giveaway/internal/services"
	"giveaway/internal/store/memory"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	l := logger.Init("handlers-test", false, false, io.Discard)
	code := m.Run()
	l.Close()
	os.Exit(code)
}

type silentNotifier struct{}

func (silentNotifier) AnnounceOpened(context.Context, *models.Drawing) (string, error) {
	return "msg-1", nil
}
func (silentNotifier) AnnounceEnded(context.Context, *models.Drawing, []string) error { return nil }
func (silentNotifier) UpdateAnnouncement(context.Context, *models.Drawing) error      { return nil }

func newRouter() (*gin.Engine, *membership.StaticDirectory) {
	dir := membership.NewStaticDirectory()
	svc := services.NewGiveawayService(memory.New(), dir, silentNotifier{})
	router := gin.New()
	NewHTTPHandler(svc).RegisterRoutes(router)
	return router, dir
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func openDrawing(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/giveaways", gin.H{
		"channelRef":   "channel-1",
		"communityRef": "community-1",
		"organizerId":  "organizer-1",
		"prize":        "headset",
		"winnerQuota":  1,
		"duration":     "1h",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, but got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Drawing models.Drawing `json:"drawing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Drawing.ID
}

func TestHTTPHandler_StatusMapping(t *testing.T) {
	t.Run("open rejects an unparseable duration", func(t *testing.T) {
		router, _ := newRouter()
		w := doJSON(t, router, http.MethodPost, "/giveaways", gin.H{
			"channelRef":   "c",
			"communityRef": "g",
			"organizerId":  "o",
			"prize":        "x",
			"winnerQuota":  1,
			"duration":     "tomorrow",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, but got %d", w.Code)
		}
	})

	t.Run("unknown drawing yields 404", func(t *testing.T) {
		router, _ := newRouter()
		w := doJSON(t, router, http.MethodPost, "/giveaways/nope/enter", gin.H{"participantId": "alice"})
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, but got %d", w.Code)
		}
	})

	t.Run("reroll on an active drawing yields 409", func(t *testing.T) {
		router, _ := newRouter()
		id := openDrawing(t, router)
		w := doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/reroll", gin.H{"count": 1})
		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, but got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("empty edit yields 400", func(t *testing.T) {
		router, _ := newRouter()
		id := openDrawing(t, router)
		w := doJSON(t, router, http.MethodPatch, "/giveaways/"+id, gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, but got %d", w.Code)
		}
	})
}

func TestHTTPHandler_Lifecycle(t *testing.T) {
	router, dir := newRouter()
	id := openDrawing(t, router)

	for _, participant := range []string{"alice", "bob", "carol"} {
		dir.Register(participant, nil, 0, 0)
		w := doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/enter", gin.H{"participantId": participant})
		if w.Code != http.StatusOK {
			t.Fatalf("Enter %s: expected 200, but got %d: %s", participant, w.Code, w.Body.String())
		}
	}

	// Entering twice keeps the set unchanged.
	if w := doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/enter", gin.H{"participantId": "alice"}); w.Code != http.StatusOK {
		t.Fatalf("Re-enter: expected 200, but got %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/giveaways?community_id=community-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ListActive: expected 200, but got %d", w.Code)
	}
	var listResp struct {
		Drawings []models.Drawing `json:"drawings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Drawings) != 1 || len(listResp.Drawings[0].Entrants) != 3 {
		t.Fatalf("Expected 1 active drawing with 3 entrants, but got %+v", listResp.Drawings)
	}

	w = doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/end", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("End: expected 200, but got %d: %s", w.Code, w.Body.String())
	}
	var endResp struct {
		Drawing models.Drawing `json:"drawing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &endResp); err != nil {
		t.Fatalf("decode end: %v", err)
	}
	if !endResp.Drawing.Ended || len(endResp.Drawing.Winners) != 1 {
		t.Fatalf("Expected ended drawing with 1 winner, but got %+v", endResp.Drawing)
	}

	// Ending again is a no-op, not an error.
	if w := doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/end", nil); w.Code != http.StatusOK {
		t.Fatalf("Second end: expected 200, but got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/giveaways/"+id+"/reroll", gin.H{"count": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Reroll: expected 200, but got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &endResp); err != nil {
		t.Fatalf("decode reroll: %v", err)
	}
	if !endResp.Drawing.Ended || len(endResp.Drawing.Winners) != 2 {
		t.Fatalf("Expected 2 winners after reroll, but got %+v", endResp.Drawing)
	}
}
