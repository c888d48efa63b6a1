package nats

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
)

type fakePlants struct {
	interfaces.PlantService
	lastNearby query.NearbyQuery
	lastFrom   *geo.Point
	plant      *entities.Plant
}

func (f *fakePlants) Nearby(_ context.Context, q query.NearbyQuery) ([]*common.PlantResult, error) {
	f.lastNearby = q
	d := 0.4
	return []*common.PlantResult{{Plant: f.plant, DistanceKm: &d}}, nil
}

func (f *fakePlants) GetPlant(_ context.Context, _, id uuid.UUID, from *geo.Point) (*common.PlantResult, error) {
	f.lastFrom = from
	if id != f.plant.Id {
		return nil, common.NotFound("plant not found")
	}
	return &common.PlantResult{Plant: f.plant}, nil
}

type fakeWiki struct {
	interfaces.WikiService
	lastFilter entities.WikiFilter
}

func (f *fakeWiki) Search(_ context.Context, q query.WikiSearchQuery) (*common.PageResult[*entities.WikiEntry], error) {
	f.lastFilter = q.Filter
	return &common.PageResult[*entities.WikiEntry]{
		Records: []*entities.WikiEntry{{Name: "Lavender", ScientificName: "Lavandula angustifolia"}},
		Total:   1,
		Current: 1,
		Size:    20,
		Pages:   1,
	}, nil
}

type fakeHealth struct{}

func (fakeHealth) Check(context.Context) *common.HealthResult {
	return &common.HealthResult{Status: "ok", DB: common.StatusUp, Redis: common.StatusDisabled, NATS: common.StatusUp}
}

func runServer(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: server.RANDOM_PORT, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server did not start")
	}
	t.Cleanup(ns.Shutdown)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

type rawReply struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func request(t *testing.T, nc *nats.Conn, subject, body string) rawReply {
	t.Helper()
	msg, err := nc.Request(subject, []byte(body), 2*time.Second)
	require.NoError(t, err)
	var reply rawReply
	require.NoError(t, json.Unmarshal(msg.Data, &reply), string(msg.Data))
	return reply
}

func setup(t *testing.T) (*nats.Conn, *fakePlants, *fakeWiki) {
	t.Helper()
	nc := runServer(t)
	plants := &fakePlants{plant: &entities.Plant{Id: uuid.New(), Name: "Fig", Tags: []string{}}}
	wiki := &fakeWiki{}
	h := NewHandler(nc, "", plants, wiki, fakeHealth{}, zap.NewNop())
	require.NoError(t, h.Subscribe())
	t.Cleanup(h.Unsubscribe)
	require.NoError(t, nc.Flush())
	return nc, plants, wiki
}

func TestHandler_Nearby(t *testing.T) {
	nc, plants, _ := setup(t)

	reply := request(t, nc, SubjectNearby, `{"lat":52.52,"lng":13.405,"radiusKm":3}`)

	require.True(t, reply.Success, reply.Message)
	assert.Equal(t, http.StatusOK, reply.Code)
	var results []struct {
		Name       string  `json:"name"`
		DistanceKm float64 `json:"distanceKm"`
	}
	require.NoError(t, json.Unmarshal(reply.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Fig", results[0].Name)
	assert.InDelta(t, 0.4, results[0].DistanceKm, 1e-9)
	assert.Equal(t, 52.52, plants.lastNearby.Lat)
	assert.Equal(t, 3.0, plants.lastNearby.RadiusKm)
}

func TestHandler_NearbyRequiresCoordinates(t *testing.T) {
	nc, _, _ := setup(t)

	reply := request(t, nc, SubjectNearby, `{"lat":52.52}`)

	assert.False(t, reply.Success)
	assert.Equal(t, http.StatusBadRequest, reply.Code)
}

func TestHandler_RejectsUnknownFields(t *testing.T) {
	nc, _, _ := setup(t)

	reply := request(t, nc, SubjectNearby, `{"lat":1,"lng":2,"radius":3}`)

	assert.Equal(t, http.StatusBadRequest, reply.Code)
	assert.Equal(t, "invalid request body", reply.Message)
}

func TestHandler_GetPlant(t *testing.T) {
	nc, plants, _ := setup(t)

	reply := request(t, nc, SubjectGet, `{"id":"`+plants.plant.Id.String()+`","lat":1.5,"lng":2.5}`)
	require.True(t, reply.Success, reply.Message)
	require.NotNil(t, plants.lastFrom)
	assert.Equal(t, geo.Point{Lat: 1.5, Lng: 2.5}, *plants.lastFrom)

	reply = request(t, nc, SubjectGet, `{"id":"`+uuid.NewString()+`"}`)
	assert.False(t, reply.Success)
	assert.Equal(t, http.StatusNotFound, reply.Code)
	assert.Equal(t, "plant not found", reply.Message)

	reply = request(t, nc, SubjectGet, `{}`)
	assert.Equal(t, http.StatusBadRequest, reply.Code)
}

func TestHandler_WikiSearch(t *testing.T) {
	nc, _, wiki := setup(t)

	reply := request(t, nc, SubjectWikiSearch, `{"keyword":"lav","location":"outdoor","plantSize":"small"}`)

	require.True(t, reply.Success, reply.Message)
	assert.Equal(t, "lav", wiki.lastFilter.Keyword)
	assert.Equal(t, "outdoor", wiki.lastFilter.Location)
	assert.Equal(t, "small", wiki.lastFilter.Size)
	var page struct {
		Records []struct {
			Name string `json:"name"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(reply.Data, &page))
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Lavender", page.Records[0].Name)
}

func TestHandler_Health(t *testing.T) {
	nc, _, _ := setup(t)

	reply := request(t, nc, SubjectHealth, "")

	require.True(t, reply.Success)
	assert.JSONEq(t, `{"status":"ok","db":"up","redis":"disabled","nats":"up"}`, string(reply.Data))
}
