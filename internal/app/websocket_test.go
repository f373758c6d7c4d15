package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wstypes "auth-service/internal/domain/websocket"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSocket(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + token
	header := http.Header{}
	header.Set("X-Request-Id", "ws-test")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *wstypes.WSMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wstypes.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestWebSocketForceLogout(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	s.register("ann@example.com", "hunter2")
	watched := s.login("ann@example.com", "hunter2")
	other := s.login("ann@example.com", "hunter2")
	userID := uuid.MustParse(watched.UserID)

	conn := dialSocket(t, srv, watched.AccessToken)
	assert.Equal(t, wstypes.EventTypeConnected, readEvent(t, conn).Type)
	assert.Equal(t, 1, s.svc.Hub.ConnectedClients(userID))

	require.NoError(t, conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypePing, nil)))
	assert.Equal(t, wstypes.EventTypePong, readEvent(t, conn).Type)

	pageSize := 5
	require.NoError(t, conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypeSessionList, wstypes.SessionListRequest{PageSize: &pageSize})))
	listed := readEvent(t, conn)
	assert.Equal(t, wstypes.EventTypeSessionListed, listed.Type)

	claims, err := s.svc.Auth.CheckAccess(context.Background(), watched.AccessToken, nil)
	require.NoError(t, err)

	w, _ := s.do(http.MethodDelete, "/api/v1/user/sessions/"+claims.SessionID.String(), other.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	msg := readEvent(t, conn)
	assert.Equal(t, wstypes.EventTypeForceLogout, msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, claims.SessionID.String(), data["session_id"])
	assert.Equal(t, "end_user_session", data["reason"])

	assert.Eventually(t, func() bool {
		return s.svc.Hub.ConnectedClients(userID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsRevokedToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	s.register("ann@example.com", "hunter2")
	pair := s.login("ann@example.com", "hunter2")

	w, _ := s.do(http.MethodPost, "/api/v1/logout", pair.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + pair.AccessToken
	header := http.Header{}
	header.Set("X-Request-Id", "ws-test")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
