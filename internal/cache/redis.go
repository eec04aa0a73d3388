package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/surgefare/config"
	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	flightsPrefix = "cache:flights:"
	// flightsGenKey is bumped on every invalidation. Entries are keyed by
	// generation so a write carrying an older generation is never read.
	flightsGenKey = flightsPrefix + "gen"
)

// FlightCache stores flight search results per filter.
type FlightCache interface {
	// GetFlights also returns the generation the lookup ran against. Pass it
	// back to SetFlights when filling a miss.
	GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int64, bool, error)
	SetFlights(ctx context.Context, gen int64, filter domain.FlightFilter, flights []domain.Flight) error
	// InvalidateFlights drops every cached search.
	InvalidateFlights(ctx context.Context) error
	Close() error
}

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return newRedisCache(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), flightsTTL)
}

func newRedisCache(client *redis.Client, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, flightsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get flights generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := c.client.Get(ctx, flightsKey(gen, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("get cached flights: %w", err)
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, gen, false, fmt.Errorf("decode cached flights: %w", err)
	}
	return flights, gen, true, nil
}

// SetFlights stores under gen. A write racing an invalidation lands under a
// retired generation and expires unread.
func (c *RedisCache) SetFlights(ctx context.Context, gen int64, filter domain.FlightFilter, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(gen, filter), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	if err := c.client.Incr(ctx, flightsGenKey).Err(); err != nil {
		return fmt.Errorf("bump flights generation: %w", err)
	}
	iter := c.client.Scan(ctx, 0, flightsPrefix+"v*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached flights: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoOpCache is used when Redis is disabled.
type NoOpCache struct{}

func NewNoOpCache() NoOpCache {
	return NoOpCache{}
}

func (NoOpCache) GetFlights(context.Context, domain.FlightFilter) ([]domain.Flight, int64, bool, error) {
	return nil, 0, false, nil
}

func (NoOpCache) SetFlights(context.Context, int64, domain.FlightFilter, []domain.Flight) error {
	return nil
}

func (NoOpCache) InvalidateFlights(context.Context) error {
	return nil
}

func (NoOpCache) Close() error {
	return nil
}

// flightsKey is stable for equal filters within a generation. Cities are not
// normalised.
func flightsKey(gen int64, filter domain.FlightFilter) string {
	raw := strings.Join([]string{filter.DepartureCity, filter.ArrivalCity, fmt.Sprint(filter.Limit)}, "\x00")
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%sv%d:%s", flightsPrefix, gen, hex.EncodeToString(sum[:8]))
}

var (
	_ FlightCache = (*RedisCache)(nil)
	_ FlightCache = NoOpCache{}
)
