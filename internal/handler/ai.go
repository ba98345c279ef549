package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type agentRequest struct {
	Query string `json:"query"`
}

type backtestRequest struct {
	Pair       string   `json:"pair"`
	Timeframe  string   `json:"timeframe"`
	Components []string `json:"components"`
}

type answerRequest struct {
	Answer int `json:"answer"`
}

// AnalyzeBot godoc
// @Summary      Strategy analysis for a bot
// @Tags         ai
// @Produce      json
// @Param        botId  path  string  true  "Bot id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/ai/analysis/{botId} [post]
func (h *Handler) AnalyzeBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-bot")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", c.Param("botId")))

	result, err := h.panels.Analyze(ctx, c.Param("botId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": result})
}

// AskAgent godoc
// @Summary      Ask a bot's agent
// @Description  Blank queries are ignored; switching bots starts a new conversation
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        botId  path  string        true  "Bot id"
// @Param        body   body  agentRequest  true  "Query"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/ai/agent/{botId} [post]
func (h *Handler) AskAgent(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.ask-agent")
	defer span.End()

	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conversation, err := h.panels.AskAgent(ctx, c.Param("botId"), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// ScanPatterns godoc
// @Summary      Chart pattern scan
// @Description  Scans BTC, ETH and SOL concurrently
// @Tags         ai
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/ai/patterns [post]
func (h *Handler) ScanPatterns(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.scan-patterns")
	defer span.End()

	patterns, err := h.panels.ScanPatterns(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// RunBacktest godoc
// @Summary      Simulated backtest
// @Description  Metrics that cannot be parsed are returned as null
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        body  body  backtestRequest  true  "Backtest parameters"
// @Success      200  {object}  domain.BacktestResults
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/ai/backtest [post]
func (h *Handler) RunBacktest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-backtest")
	defer span.End()

	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.panels.RunBacktest(ctx, req.Pair, req.Timeframe, req.Components)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// LoadMission godoc
// @Summary      Load the next quiz mission
// @Tags         ai
// @Produce      json
// @Success      200  {object}  domain.EarnMission
// @Failure      401  {object}  map[string]string
// @Router       /api/ai/mission [post]
func (h *Handler) LoadMission(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.load-mission")
	defer span.End()

	mission, err := h.panels.LoadMission(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mission)
}

// AnswerMission godoc
// @Summary      Answer the open mission
// @Description  A correct answer credits the reward once and loads the next mission
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        body  body  answerRequest  true  "Chosen option index"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/ai/mission/answer [post]
func (h *Handler) AnswerMission(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.answer-mission")
	defer span.End()

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	correct, err := h.panels.CompleteMission(ctx, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	st := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"correct": correct, "aura_balance": st.Wallet.AuraBalance, "mission": st.Panels.Mission.Mission})
}

// Insights godoc
// @Summary      Global market summary
// @Tags         ai
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/ai/insights [get]
func (h *Handler) Insights(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.insights")
	defer span.End()

	text, err := h.panels.Insights(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": text})
}
