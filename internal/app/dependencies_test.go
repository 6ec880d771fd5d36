package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNewDependencies_Memory(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, log.WithField("test", "deps"))
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	if deps.Catalog == nil {
		t.Error("catalog should be initialized")
	}
	if deps.Journal == nil {
		t.Error("journal should be initialized")
	}
	if deps.OutboxRepo == nil {
		t.Error("outbox repo should be initialized")
	}
	if deps.Store != nil {
		t.Error("postgres store should be nil without DSN")
	}
}

func TestNewDependencies_NilLogger(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	if deps.Logger == nil {
		t.Error("logger should be defaulted")
	}
}

func TestNewDependencies_BadPostgresDSN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDependencies(ctx, Config{PostgresDSN: "postgres://nobody@127.0.0.1:1/none"}, nil)
	if err == nil {
		t.Fatal("expected error for unreachable postgres")
	}
}

func TestDependencies_CloseNil(_ *testing.T) {
	var deps *Dependencies
	deps.Close()

	(&Dependencies{}).Close()
}

func TestCreateEngine(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, log.WithField("test", "engine"))
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	engine := createEngine(deps, nil, []string{"brandId"})
	if engine == nil {
		t.Fatal("engine should not be nil")
	}
}
