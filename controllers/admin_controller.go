package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memorybook/memorybook/session"
	"github.com/memorybook/memorybook/ui"
	"github.com/memorybook/memorybook/utils"
)

// AdminController serves the password gate and the moderation gallery.
type AdminController struct {
	gate          ui.Verifier
	lister        ui.Lister
	sessionSecret []byte
	secureCookies bool
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(gate ui.Verifier, lister ui.Lister, sessionSecret []byte, secureCookies bool) *AdminController {
	return &AdminController{
		gate:          gate,
		lister:        lister,
		sessionSecret: sessionSecret,
		secureCookies: secureCookies,
	}
}

func (a *AdminController) gallery(ctx *gin.Context) *ui.Gallery {
	store := session.NewCookieStore(ctx, a.sessionSecret, a.secureCookies)
	return ui.NewGallery(store, a.gate, a.lister)
}

// ShowGallery renders the gallery for a stored session, or the login page.
func (a *AdminController) ShowGallery(ctx *gin.Context) {
	g := a.gallery(ctx)
	g.Mount(ctx.Request.Context())
	a.render(ctx, http.StatusOK, g)
}

// Login handles the login form post. It only stores the flag; the redirected GET loads the list.
func (a *AdminController) Login(ctx *gin.Context) {
	g := a.gallery(ctx)
	err := g.Authenticate(ctx.PostForm("password"))
	switch {
	case err == nil:
		// back to GET so a reload does not resubmit the password
		ctx.Redirect(http.StatusSeeOther, "/admin")
	case errors.Is(err, ui.ErrIncorrectPassword):
		a.render(ctx, http.StatusUnauthorized, g)
	default:
		utils.Sugar.Errorf("admin session not stored: %v", err)
		a.render(ctx, http.StatusInternalServerError, g)
	}
}

// Logout clears the admin flag and returns to the login page.
func (a *AdminController) Logout(ctx *gin.Context) {
	if err := a.gallery(ctx).Logout(); err != nil {
		utils.Sugar.Warnf("admin logout: %v", err)
	}
	ctx.Redirect(http.StatusSeeOther, "/admin")
}

// Verify checks {"password": "..."} against the admin secret.
// A body that is not exactly one non-null JSON value is a 500. Any other value
// without a matching string password is a 401.
func (a *AdminController) Verify(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	var payload interface{}
	if err != nil || json.Unmarshal(body, &payload) != nil || payload == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	fields, _ := payload.(map[string]interface{})
	password, ok := fields["password"].(string)
	if !ok || !a.gate.Verify(password) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	if err := session.NewCookieStore(ctx, a.sessionSecret, a.secureCookies).Set(); err != nil {
		utils.Sugar.Warnf("admin verified but session cookie not set: %v", err)
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMemories returns every memory, newest first. Unlike the gallery page, failures are reported.
func (a *AdminController) ListMemories(ctx *gin.Context) {
	memories, err := a.lister.ListAll(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Errorf("list memories: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to list memories")
		return
	}
	utils.Success(ctx, gin.H{
		"memories": memories,
		"count":    len(memories),
	})
}

func (a *AdminController) render(ctx *gin.Context, status int, g *ui.Gallery) {
	if g.Stage == ui.LoggedIn {
		ctx.HTML(status, "gallery.html", g)
		return
	}
	ctx.HTML(status, "login.html", gin.H{"Error": g.Error})
}
