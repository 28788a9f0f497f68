package cache

import (
	"context"
	"testing"
	"time"
)

func TestArticleListKey(t *testing.T) {
	key1 := ArticleListKey(20, 0, false)
	key2 := ArticleListKey(20, 0, false)
	key3 := ArticleListKey(20, 40, true)

	if key1 != key2 {
		t.Errorf("Expected consistent key generation, got %s != %s", key1, key2)
	}
	if key1 == key3 {
		t.Errorf("Expected different keys for different pages, got same: %s", key1)
	}
	if key1 != "articles:list:20:0:false" {
		t.Errorf("Unexpected key format: %s", key1)
	}
}

func TestNilCacheDegradesToNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest []string
	hit, err := c.Get(ctx, "any", &dest)
	if err != nil {
		t.Errorf("Expected nil cache Get to succeed, got %v", err)
	}
	if hit {
		t.Error("Expected nil cache Get to miss")
	}

	if err := c.Set(ctx, "any", []string{"v"}, time.Minute); err != nil {
		t.Errorf("Expected nil cache Set to succeed, got %v", err)
	}
	if err := c.Delete(ctx, "any"); err != nil {
		t.Errorf("Expected nil cache Delete to succeed, got %v", err)
	}
	if err := c.InvalidateArticles(ctx); err != nil {
		t.Errorf("Expected nil cache invalidation to succeed, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil cache Close to succeed, got %v", err)
	}
}
