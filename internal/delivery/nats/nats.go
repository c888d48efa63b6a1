// Package nats answers request/reply queries from other services on the bus.
package nats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/delivery/handler"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
)

const (
	SubjectNearby     = "plant.nearby"
	SubjectGet        = "plant.get"
	SubjectWikiSearch = "wiki.search"
	SubjectHealth     = "plant.health"

	defaultQueue   = "plant-service"
	handlerTimeout = 2 * time.Second
)

// Reply mirrors the HTTP envelope so callers parse both the same way.
type Reply struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type NearbyRequest struct {
	UserId   uuid.UUID `json:"userId"`
	Lat      *float64  `json:"lat"`
	Lng      *float64  `json:"lng"`
	RadiusKm float64   `json:"radiusKm"`
	Limit    int       `json:"limit"`
}

type GetPlantRequest struct {
	Id     uuid.UUID `json:"id"`
	UserId uuid.UUID `json:"userId"`
	Lat    *float64  `json:"lat"`
	Lng    *float64  `json:"lng"`
}

type WikiSearchRequest struct {
	Keyword   string `json:"keyword"`
	CareLevel string `json:"careLevel"`
	Light     string `json:"light"`
	PlantType string `json:"plantType"`
	Location  string `json:"location"`
	PlantSize string `json:"plantSize"`
	Page      int    `json:"page"`
	Size      int    `json:"size"`
}

type Handler struct {
	nc      *nats.Conn
	queue   string
	plants  interfaces.PlantService
	wiki    interfaces.WikiService
	health  interfaces.HealthChecker
	timeout time.Duration
	logger  *zap.Logger
	subs    []*nats.Subscription
}

func NewHandler(
	nc *nats.Conn,
	queue string,
	plants interfaces.PlantService,
	wiki interfaces.WikiService,
	health interfaces.HealthChecker,
	logger *zap.Logger,
) *Handler {
	if queue == "" {
		queue = defaultQueue
	}
	return &Handler{
		nc:      nc,
		queue:   queue,
		plants:  plants,
		wiki:    wiki,
		health:  health,
		timeout: handlerTimeout,
		logger:  logger,
	}
}

// Subscribe registers the responders. Queries go through a queue group so
// only one instance answers; health is answered by every instance.
func (h *Handler) Subscribe() error {
	queued := map[string]nats.MsgHandler{
		SubjectNearby:     h.respond(h.handleNearby),
		SubjectGet:        h.respond(h.handleGet),
		SubjectWikiSearch: h.respond(h.handleWikiSearch),
	}
	for subject, fn := range queued {
		sub, err := h.nc.QueueSubscribe(subject, h.queue, fn)
		if err != nil {
			h.Unsubscribe()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		h.subs = append(h.subs, sub)
	}

	sub, err := h.nc.Subscribe(SubjectHealth, h.respond(h.handleHealth))
	if err != nil {
		h.Unsubscribe()
		return fmt.Errorf("subscribe %s: %w", SubjectHealth, err)
	}
	h.subs = append(h.subs, sub)

	h.logger.Info("NATS responders ready", zap.String("queue", h.queue))
	return nil
}

func (h *Handler) Unsubscribe() {
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			h.logger.Warn("NATS unsubscribe failed", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	h.subs = nil
}

type handleFunc func(ctx context.Context, data []byte) (any, error)

func (h *Handler) respond(fn handleFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		reply := Reply{Code: http.StatusOK, Success: true, Message: "success"}
		data, err := fn(ctx, msg.Data)
		if err != nil {
			reply.Code, reply.Message = handler.StatusFor(err)
			reply.Success = false
			if reply.Code >= http.StatusInternalServerError {
				h.logger.Error("NATS request failed", zap.String("subject", msg.Subject), zap.Error(err))
			}
		} else {
			reply.Data = data
		}

		body, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("Failed to encode NATS reply", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		if err := msg.Respond(body); err != nil {
			h.logger.Warn("Failed to send NATS reply", zap.String("subject", msg.Subject), zap.Error(err))
		}
	}
}

func decode(data []byte, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return common.InvalidInput("invalid request body")
	}
	return nil
}

func (h *Handler) handleNearby(ctx context.Context, data []byte) (any, error) {
	var req NearbyRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.Lat == nil || req.Lng == nil {
		return nil, common.InvalidInput("lat and lng are required")
	}
	return h.plants.Nearby(ctx, query.NearbyQuery{
		UserId:   req.UserId,
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		RadiusKm: req.RadiusKm,
		Limit:    req.Limit,
	})
}

func (h *Handler) handleGet(ctx context.Context, data []byte) (any, error) {
	var req GetPlantRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.Id == uuid.Nil {
		return nil, common.InvalidInput("id is required")
	}
	var from *geo.Point
	if req.Lat != nil && req.Lng != nil {
		from = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	return h.plants.GetPlant(ctx, req.UserId, req.Id, from)
}

func (h *Handler) handleWikiSearch(ctx context.Context, data []byte) (any, error) {
	var req WikiSearchRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return h.wiki.Search(ctx, query.WikiSearchQuery{
		Filter: entities.WikiFilter{
			Keyword:   req.Keyword,
			CareLevel: req.CareLevel,
			Light:     req.Light,
			PlantType: req.PlantType,
			Location:  req.Location,
			Size:      req.PlantSize,
		},
		Page: req.Page,
		Size: req.Size,
	})
}

func (h *Handler) handleHealth(ctx context.Context, _ []byte) (any, error) {
	return h.health.Check(ctx), nil
}
