// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package simulator

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes a Device over WebSocket. Each binary message is fed to the
// device and any replies are sent back as one binary message.
type Server struct {
	device   *Device
	logger   *zap.Logger
	username string
	password string
	upgrader websocket.Upgrader
}

// NewServer creates a WebSocket server for device. When username is set,
// clients must present matching HTTP Basic credentials.
func NewServer(device *Device, username, password string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		device:   device,
		logger:   logger,
		username: username,
		password: password,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	return ok &&
		subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) == 1 &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) == 1
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="pharos"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("client connected", zap.String("remote", r.RemoteAddr))
	defer s.logger.Info("client disconnected", zap.String("remote", r.RemoteAddr))

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		reply := s.device.Respond(data)
		if len(reply) == 0 {
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, reply); err != nil {
			s.logger.Debug("write failed", zap.Error(err))
			return
		}
	}
}
