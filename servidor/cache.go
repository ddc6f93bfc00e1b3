package main

import (
	"context"
	"log"
	"time"

	"CityVision/servidor/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// AttributeCache guarda respostas JSON da API de city objects.
type AttributeCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// noopCache é usado quando não há Redis configurado.
type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []byte)        {}

// redisCache guarda as respostas no Redis com TTL.
type redisCache struct {
	rc  *redis.Client
	ttl time.Duration
}

// newAttributeCache conecta ao Redis em addr. Sem addr, ou se o Redis não responder,
// retorna um cache que não guarda nada.
func newAttributeCache(addr string, ttl time.Duration) AttributeCache {
	if addr == "" || ttl <= 0 {
		return noopCache{}
	}
	rc := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis %s indisponível (%v); seguindo sem cache", addr, err)
		rc.Close()
		return noopCache{}
	}
	log.Printf("[Cache] Redis conectado em %s (TTL %v)", addr, ttl)
	return &redisCache{rc: rc, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.Get(ctx, "cv:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] Erro ao ler %s: %v", key, err)
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return b, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.rc.Set(ctx, "cv:"+key, value, c.ttl).Err(); err != nil {
		log.Printf("[Cache] Erro ao gravar %s: %v", key, err)
	}
}
