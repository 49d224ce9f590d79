package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/solver"
)

// Solve returns a handler for POST /quiz.
//
// Orchestration flow:
//  1. Parse & validate request (body already cached by auth middleware).
//  2. Controller.Solve runs the chain under the wall-clock budget.
//  3. Map the verdict: chain failures are still HTTP 200 with
//     correct=false, matching the grader contract. Only malformed
//     requests and auth failures get non-200 statuses.
func Solve(ctrl *solver.Controller, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SolveRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, models.SolveResponse{
				Correct: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		verdict := ctrl.Solve(c.Request.Context(), req.URL, budget)

		resp := models.SolveResponse{Correct: verdict.Correct}
		if verdict.FinalURL != "" {
			u := verdict.FinalURL
			resp.URL = &u
		}
		if verdict.State == models.StateFailed && verdict.Err != nil {
			resp.Error = verdict.Err.ToDetail()
		}
		c.JSON(http.StatusOK, resp)
	}
}
