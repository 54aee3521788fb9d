package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/session"
)

type staticGate string

func (g staticGate) Verify(password string) bool { return password == string(g) }

type fakeLister struct {
	calls int
	rows  []models.Memory
	err   error
}

func (f *fakeLister) ListAll(ctx context.Context) ([]models.Memory, error) {
	f.calls++
	return f.rows, f.err
}

func sampleMemories() []models.Memory {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return []models.Memory{
		{ID: "2", Name: "Bob", YearMet: 2010, Message: "b", CreatedAt: now},
		{ID: "1", Name: "Alice", YearMet: 2005, Message: "a", CreatedAt: now.Add(-time.Hour)},
	}
}

func TestGallery_LoginFetchesOnce(t *testing.T) {
	store := &session.MemoryStore{}
	lister := &fakeLister{rows: sampleMemories()}
	g := NewGallery(store, staticGate("secret"), lister)

	g.Mount(context.Background())
	if g.Stage != LoggedOut || lister.calls != 0 {
		t.Fatalf("Mount without session: stage=%v calls=%d", g.Stage, lister.calls)
	}

	if err := g.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if g.Stage != LoggedIn || !g.Loaded {
		t.Errorf("stage=%v loaded=%v", g.Stage, g.Loaded)
	}
	if !store.Get() {
		t.Error("session flag not stored")
	}
	if lister.calls != 1 || g.Fetches() != 1 {
		t.Errorf("list fetched %d times, want 1", lister.calls)
	}
	if len(g.Memories) != 2 || g.Memories[0].Name != "Bob" {
		t.Errorf("Memories = %v", g.Memories)
	}

	// a repeated login on an open gallery does not refetch
	_ = g.Login(context.Background(), "secret")
	if lister.calls != 1 {
		t.Errorf("list fetched %d times after second login", lister.calls)
	}
}

func TestGallery_AuthenticateDefersFetchToMount(t *testing.T) {
	store := &session.MemoryStore{}
	lister := &fakeLister{rows: sampleMemories()}

	if err := NewGallery(store, staticGate("secret"), lister).Authenticate("secret"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !store.Get() {
		t.Fatal("session flag not stored")
	}
	if lister.calls != 0 {
		t.Fatalf("Authenticate fetched the list %d times", lister.calls)
	}

	g := NewGallery(store, staticGate("secret"), lister)
	g.Mount(context.Background())
	if g.Stage != LoggedIn || lister.calls != 1 {
		t.Errorf("after Mount: stage=%v calls=%d, want LoggedIn and 1", g.Stage, lister.calls)
	}

	bad := NewGallery(&session.MemoryStore{}, staticGate("secret"), lister)
	if err := bad.Authenticate("nope"); !errors.Is(err, ErrIncorrectPassword) {
		t.Errorf("Authenticate(wrong) error = %v", err)
	}
	if bad.Error != "Incorrect password" || bad.Stage != LoggedOut {
		t.Errorf("wrong password: stage=%v error=%q", bad.Stage, bad.Error)
	}
}

func TestGallery_WrongPassword(t *testing.T) {
	store := &session.MemoryStore{}
	lister := &fakeLister{}
	g := NewGallery(store, staticGate("secret"), lister)

	err := g.Login(context.Background(), "nope")
	if !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("Login() error = %v", err)
	}
	if g.Stage != LoggedOut || g.Error != "Incorrect password" {
		t.Errorf("stage=%v error=%q", g.Stage, g.Error)
	}
	if store.Get() || lister.calls != 0 {
		t.Error("failed login persisted state or fetched memories")
	}
}

func TestGallery_MountWithSessionSkipsGate(t *testing.T) {
	store := &session.MemoryStore{}
	_ = store.Set()
	lister := &fakeLister{rows: sampleMemories()}
	g := NewGallery(store, staticGate(""), lister)

	g.Mount(context.Background())
	if g.Stage != LoggedIn || lister.calls != 1 {
		t.Errorf("stage=%v calls=%d", g.Stage, lister.calls)
	}
}

func TestGallery_LogoutClearsSession(t *testing.T) {
	store := &session.MemoryStore{}
	g := NewGallery(store, staticGate("secret"), &fakeLister{rows: sampleMemories()})
	_ = g.Login(context.Background(), "secret")

	if err := g.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if g.Stage != LoggedOut || g.Memories != nil || store.Get() {
		t.Errorf("after logout stage=%v memories=%v flag=%v", g.Stage, g.Memories, store.Get())
	}

	reloaded := NewGallery(store, staticGate("secret"), &fakeLister{})
	reloaded.Mount(context.Background())
	if reloaded.Stage != LoggedOut {
		t.Errorf("reload after logout stage=%v", reloaded.Stage)
	}
}

func TestGallery_ListingErrorShowsEmpty(t *testing.T) {
	store := &session.MemoryStore{}
	boom := errors.New("db down")
	g := NewGallery(store, staticGate("secret"), &fakeLister{err: boom})

	if err := g.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if g.Stage != LoggedIn || !g.Loaded {
		t.Errorf("stage=%v loaded=%v", g.Stage, g.Loaded)
	}
	if len(g.Memories) != 0 || g.Memories == nil {
		t.Errorf("Memories = %#v, want empty", g.Memories)
	}
	if !errors.Is(g.ListErr, boom) {
		t.Errorf("ListErr = %v", g.ListErr)
	}
}
