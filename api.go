package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"bitbucket.org/mmdatafocus/fieldops_backend/models/reports"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// The closed action surface. Reads arrive as GET query parameters, writes as
// a POST JSON body carrying the action name. Anything else is a validation
// error; there is no dynamic dispatch beyond this list.
const (
	actionGetUser         = "getUser"
	actionCreateUser      = "createUser"
	actionCheckDuplicates = "checkDuplicates"
	actionSubmitBatch     = "submitBatch"
	actionSubmitOnboard   = "submitOnboard"
	actionGetOnboards     = "getOnboards"
	actionGetStats        = "getStats"
	actionGetReport       = "getReport"
)

type checkDuplicatesRequest struct {
	Ids  []string              `json:"ids"`
	Type models.SubmissionType `json:"type"`
}

type submitBatchRequest struct {
	Rows []*models.NewSubmission `json:"rows"`
	Type models.SubmissionType   `json:"type"`
}

type submitOnboardRequest struct {
	Entry *models.NewOnboardEntry `json:"entry"`
}

func httpStatusForCode(code string) int {
	switch code {
	case utils.CodeNotFound:
		return http.StatusNotFound
	case utils.CodeAlreadyExists, utils.CodeDuplicate:
		return http.StatusConflict
	case utils.CodeAccessDenied:
		return http.StatusForbidden
	case utils.CodeBusy:
		return http.StatusServiceUnavailable
	case utils.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError keeps the wire contract of the original backend: a JSON body
// with error text plus a stable code the gateway can branch on.
func respondError(c *gin.Context, err error) {
	code := utils.ErrorCode(err)
	if errors.Is(err, config.ErrStoreBusy) {
		code = utils.CodeBusy
	}
	c.JSON(httpStatusForCode(code), gin.H{"error": err.Error(), "code": code})
}

// apiHandler is the single entry point. It resolves the action, serializes
// the whole request behind the store lock, and dispatches through an
// exhaustive switch. Every fault, panics included, leaves as a structured
// error result.
func apiHandler() gin.HandlerFunc {
	logger := config.GetLogger()

	return func(c *gin.Context) {
		var body []byte
		if c.Request.Method == http.MethodPost {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				respondError(c, fmt.Errorf("%w: unreadable request body", utils.ErrorValidation))
				return
			}
		}

		action := c.Query("action")
		if action == "" && len(body) > 0 {
			var probe struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(body, &probe); err != nil {
				respondError(c, fmt.Errorf("%w: request body is not valid JSON", utils.ErrorValidation))
				return
			}
			action = probe.Action
		}
		if action == "" {
			respondError(c, fmt.Errorf("%w: action is required", utils.ErrorValidation))
			return
		}

		ctx := utils.SetActionInContext(c.Request.Context(), action)
		ctx, span := tracer.Start(ctx, "api."+action)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				cid, _ := utils.GetCorrelationIdFromContext(ctx)
				logger.WithFields(logrus.Fields{
					"module":         "api.go",
					"action":         action,
					"correlation_id": cid,
				}).Error(fmt.Sprintf("panic: %v", r))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": utils.CodeInternal})
			}
		}()

		// One logical request at a time against the store. Bounded wait:
		// fail fast as "busy" instead of queueing forever.
		release, err := config.AcquireStoreLock(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		defer release()

		switch action {
		case actionGetUser:
			handleGetUser(c, ctx)
		case actionCreateUser:
			handleCreateUser(c, ctx, body)
		case actionCheckDuplicates:
			handleCheckDuplicates(c, ctx, body)
		case actionSubmitBatch:
			handleSubmitBatch(c, ctx, body)
		case actionSubmitOnboard:
			handleSubmitOnboard(c, ctx, body)
		case actionGetOnboards:
			handleGetOnboards(c, ctx)
		case actionGetStats:
			handleGetStats(c, ctx)
		case actionGetReport:
			handleGetReport(c, ctx)
		default:
			respondError(c, fmt.Errorf("%w: unknown action %q", utils.ErrorValidation, action))
		}
	}
}

func handleGetUser(c *gin.Context, ctx context.Context) {
	member, err := models.GetTeamMember(ctx, c.Query("msisdn"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": member})
}

func handleCreateUser(c *gin.Context, ctx context.Context, body []byte) {
	var input models.NewTeamMember
	if err := json.Unmarshal(body, &input); err != nil {
		respondError(c, fmt.Errorf("%w: invalid member payload", utils.ErrorValidation))
		return
	}
	if _, err := models.CreateTeamMember(ctx, &input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleCheckDuplicates(c *gin.Context, ctx context.Context, body []byte) {
	var req checkDuplicatesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid payload", utils.ErrorValidation))
		return
	}
	duplicates, err := models.CheckDuplicateTransactions(ctx, req.Ids, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": duplicates})
}

func handleSubmitBatch(c *gin.Context, ctx context.Context, body []byte) {
	var req submitBatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid payload", utils.ErrorValidation))
		return
	}
	if err := models.SubmitBatch(ctx, req.Rows, req.Type); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleSubmitOnboard(c *gin.Context, ctx context.Context, body []byte) {
	var req submitOnboardRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Entry == nil {
		respondError(c, fmt.Errorf("%w: invalid onboarding payload", utils.ErrorValidation))
		return
	}
	if err := models.SubmitOnboard(ctx, req.Entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleGetOnboards(c *gin.Context, ctx context.Context) {
	msisdn := c.Query("msisdn")
	// Owner guard defense in depth: scope every query on this request to
	// the caller, on top of the explicit filter in the model.
	ctx = utils.SetMemberMsisdnInContext(ctx, msisdn)
	entries, err := models.GetOnboards(ctx, models.OnboardSheet(c.Query("sheetType")), msisdn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func handleGetStats(c *gin.Context, ctx context.Context) {
	identifier := c.Query("identifier")
	ctx = utils.SetMemberMsisdnInContext(ctx, identifier)
	stats, err := models.GetMemberStats(ctx, identifier, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleGetReport is the one operation that crosses the owner boundary. The
// requester must exist and hold the Admin role; the bypass of owner scoping
// is an explicit context flag, never the default.
func handleGetReport(c *gin.Context, ctx context.Context) {
	requester := c.Query("requester")
	if requester == "" {
		respondError(c, fmt.Errorf("%w: requester is required", utils.ErrorAccessDenied))
		return
	}
	member, err := models.GetTeamMember(ctx, requester)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			err = fmt.Errorf("%w: unknown requester", utils.ErrorAccessDenied)
		}
		respondError(c, err)
		return
	}
	if member.Role != models.RoleAdmin {
		respondError(c, fmt.Errorf("%w: report export is admin only", utils.ErrorAccessDenied))
		return
	}

	ctx = utils.SetSkipOwnerScopeInContext(ctx, true)
	rows, err := reports.GetSubmissionReport(ctx, models.SubmissionType(c.Query("type")), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=report.xlsx")
		if err := reports.WriteSubmissionReportExcel(c.Writer, rows); err != nil {
			config.LogError(config.GetLogger(), "api.go", "handleGetReport", "write xlsx", nil, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
