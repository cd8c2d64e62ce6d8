// Package httpapi exposes the REST surface of the relay: account
// registration and login, contact and group listing, group creation and
// message history.
package httpapi

import (
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type API struct {
	accounts repositories.IAccountRepository
	groups   repositories.IGroupRepository
	messages repositories.IMessageRepository
	tokens   *auth.TokenIssuer
	presence PresenceSource
	proc     *process.Process
	log      *slog.Logger
	started  time.Time
}

// PresenceSource exposes the registry counters reported by the health
// endpoint.
type PresenceSource interface {
	Size() (users, connections int)
}

func NewAPI(accounts repositories.IAccountRepository, groups repositories.IGroupRepository,
	messages repositories.IMessageRepository, tokens *auth.TokenIssuer,
	presence PresenceSource, log *slog.Logger) *API {
	// A nil proc just drops the process stats from healthz.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &API{
		accounts: accounts,
		groups:   groups,
		messages: messages,
		tokens:   tokens,
		presence: presence,
		proc:     proc,
		log:      log,
		started:  time.Now(),
	}
}

func (a *API) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := auth.ValidateRegister(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.log.Error("password hashing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if _, err := a.accounts.CreateAccount(req.Username, hash); err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
			return
		}
		a.log.Error("account creation failed", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": req.Username})
}

func (a *API) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := a.accounts.GetByUsername(req.Username)
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			a.log.Error("account lookup failed", "username", req.Username, "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	match, err := auth.ComparePassword(req.Password, account.PasswordHash)
	if err != nil || !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := a.tokens.Issue(account.Username)
	if err != nil {
		a.log.Error("token issuance failed", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": account.Username, "token": token})
}

func (a *API) listUsers(c *gin.Context) {
	usernames, err := a.accounts.ListUsernames(c.Param("me"))
	if err != nil {
		a.log.Error("user listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(usernames, func(name string, _ int) gin.H {
		return gin.H{"username": name}
	}))
}

func (a *API) listGroups(c *gin.Context) {
	groups, err := a.groups.FindGroupsContainingMember(domain.UserID(c.Param("me")))
	if err != nil {
		a.log.Error("group listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list groups"})
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

func (a *API) createGroup(c *gin.Context) {
	var req struct {
		Name    string   `json:"name" binding:"required"`
		Members []string `json:"members" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	members := lo.Map(req.Members, func(m string, _ int) domain.UserID {
		return domain.UserID(m)
	})
	group, err := a.groups.CreateGroup(req.Name, members)
	if err != nil {
		a.log.Error("group creation failed", "name", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

func (a *API) messageHistory(c *gin.Context) {
	me := domain.UserID(c.Param("me"))
	peer := domain.UserID(c.Param("peer"))

	records, err := a.messages.FindBetween(me, peer)
	if err != nil {
		a.log.Error("history lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(records, func(r domain.DeliveryRecord, _ int) gin.H {
		return gin.H{
			"sender":    string(r.Sender),
			"receiver":  r.Receiver,
			"content":   r.Content,
			"isGroup":   r.IsGroup,
			"timestamp": r.CreatedAt,
		}
	}))
}

func (a *API) healthz(c *gin.Context) {
	users, connections := a.presence.Size()
	payload := gin.H{
		"uptime_seconds": int(time.Since(a.started).Seconds()),
		"users":          users,
		"connections":    connections,
		"goroutines":     runtime.NumGoroutine(),
	}
	if a.proc != nil {
		if memInfo, err := a.proc.MemoryInfo(); err == nil {
			payload["rss_mb"] = memInfo.RSS / 1024 / 1024
		}
		if cpuPercent, err := a.proc.CPUPercent(); err == nil {
			payload["cpu_percent"] = cpuPercent
		}
	}
	c.JSON(http.StatusOK, payload)
}
