package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"macrotrack"
	"macrotrack/recipe"
	"macrotrack/resolver"
	"macrotrack/tracker"
)

type recipeRequest struct {
	Recipe string `json:"recipe"`
}

type itemView struct {
	macrotrack.FoodItem
	Totals macrotrack.Macros `json:"totals"`
}

type totalsView struct {
	Totals   macrotrack.DailyTotals `json:"totals"`
	Progress float64                `json:"progress"`
	Summary  string                 `json:"summary"`
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// POST /api/recipes/parse {"recipe": "2 dosas, 100g rice"}
func (s *Server) parseRecipe(c *gin.Context) {
	var req recipeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": s.parser.Parse(req.Recipe)})
}

// POST /api/recipes/resolve {"recipe": "2 dosas, 100g rice"}
func (s *Server) resolveRecipe(c *gin.Context) {
	var req recipeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	items, err := s.session.ResolveRecipe(c.Request.Context(), req.Recipe)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView{FoodItem: it, Totals: it.Totals()})
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "totals": resolver.Total(items)})
}

// POST /api/recipes/custom {"name": "porridge", "ingredients": [...]}
func (s *Server) customRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := bindJSON(c, &r); err != nil {
		writeError(c, err)
		return
	}
	if err := r.Validate(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": r.Name, "totals": r.Totals()})
}

// GET /api/foods/search?q=rice
func (s *Server) searchFoods(c *gin.Context) {
	facts, err := s.session.SearchFoods(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if facts == nil {
		facts = []macrotrack.FoodFact{}
	}
	c.JSON(http.StatusOK, gin.H{"foods": facts})
}

// GET /api/totals
func (s *Server) getTotals(c *gin.Context) {
	c.JSON(http.StatusOK, s.totals())
}

// POST /api/totals/commit {"items": [...]} or {"macros": {...}}
func (s *Server) commitItems(c *gin.Context) {
	var req struct {
		Items  []macrotrack.FoodItem `json:"items"`
		Macros *macrotrack.Macros    `json:"macros"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if len(req.Items) == 0 && req.Macros == nil {
		writeError(c, fmt.Errorf("%w: items or macros required", errBadRequest))
		return
	}

	s.tracker.Commit(req.Items...)
	if req.Macros != nil {
		s.tracker.AddFood(*req.Macros)
	}
	c.JSON(http.StatusOK, s.totals())
}

// PUT /api/totals/target {"calorie_target": 2000}
func (s *Server) updateTarget(c *gin.Context) {
	var req struct {
		CalorieTarget float64 `json:"calorie_target" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if err := s.tracker.UpdateTarget(req.CalorieTarget); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.totals())
}

// POST /api/totals/reset
func (s *Server) resetTotals(c *gin.Context) {
	day := s.tracker.Reset()

	notified := false
	if s.notifier != nil {
		if err := s.notifier.NotifySummary(c.Request.Context(), tracker.FormatSummary(day)); err != nil {
			slog.Warn("HTTP: Summary notification failed; totals were reset anyway", "error", err)
		} else {
			notified = true
		}
	}

	c.JSON(http.StatusOK, struct {
		totalsView
		Notified bool `json:"notified"`
	}{s.totals(), notified})
}

func (s *Server) totals() totalsView {
	return totalsView{
		Totals:   s.tracker.Snapshot(),
		Progress: s.tracker.Progress(),
		Summary:  s.tracker.Summary(),
	}
}
