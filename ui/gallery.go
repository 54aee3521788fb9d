package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/session"
	"github.com/memorybook/memorybook/utils"
)

// GalleryStage is where the admin gallery is in its lifecycle.
type GalleryStage int

const (
	LoggedOut GalleryStage = iota
	Verifying
	LoggedIn
)

func (s GalleryStage) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Verifying:
		return "verifying"
	case LoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("GalleryStage(%d)", int(s))
	}
}

// ErrIncorrectPassword is returned by Login when the gate refuses the password.
var ErrIncorrectPassword = errors.New("incorrect password")

// Verifier checks the admin password.
type Verifier interface {
	Verify(password string) bool
}

// Lister fetches every memory, newest first.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Memory, error)
}

// Gallery is the moderation view. Entering LoggedIn fetches the list exactly once;
// there is no refresh. A failed fetch shows an empty list; ListErr keeps the cause.
type Gallery struct {
	Stage    GalleryStage
	Memories []models.Memory
	Loaded   bool
	Error    string
	ListErr  error

	sessions session.Store
	gate     Verifier
	lister   Lister
	fetches  int
}

func NewGallery(sessions session.Store, gate Verifier, lister Lister) *Gallery {
	return &Gallery{sessions: sessions, gate: gate, lister: lister}
}

// Mount trusts a stored session flag without asking the gate again.
func (g *Gallery) Mount(ctx context.Context) {
	if g.sessions.Get() {
		g.enterLoggedIn(ctx)
	}
}

// Login verifies the password and, on success, stores the flag and loads the list.
func (g *Gallery) Login(ctx context.Context, password string) error {
	if g.Stage == LoggedIn {
		return nil
	}
	if err := g.Authenticate(password); err != nil {
		return err
	}
	g.enterLoggedIn(ctx)
	return nil
}

// Authenticate verifies the password and stores the flag without loading the list.
// The next Mount enters LoggedIn and does the single fetch.
func (g *Gallery) Authenticate(password string) error {
	g.Stage = Verifying
	g.Error = ""

	if !g.gate.Verify(password) {
		g.Stage = LoggedOut
		g.Error = "Incorrect password"
		return ErrIncorrectPassword
	}
	if err := g.sessions.Set(); err != nil {
		g.Stage = LoggedOut
		g.Error = "Something went wrong"
		return err
	}
	g.Stage = LoggedOut
	return nil
}

// Logout clears the flag and returns to LoggedOut unconditionally.
func (g *Gallery) Logout() error {
	err := g.sessions.Clear()
	g.Stage = LoggedOut
	g.Memories = nil
	g.Loaded = false
	g.ListErr = nil
	g.Error = ""
	return err
}

// Fetches is the number of list fetches issued so far.
func (g *Gallery) Fetches() int { return g.fetches }

func (g *Gallery) enterLoggedIn(ctx context.Context) {
	g.Stage = LoggedIn
	g.Loaded = false
	g.fetches++

	memories, err := g.lister.ListAll(ctx)
	if err != nil {
		utils.Sugar.Warnf("gallery listing failed, showing empty list: %v", err)
		g.ListErr = err
		memories = []models.Memory{}
	}
	g.Memories = memories
	g.Loaded = true
}
