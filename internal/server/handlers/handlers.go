package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesreport/internal/config"
	"salesreport/internal/exporter"
	"salesreport/internal/parser"
	"salesreport/internal/service/report"
	"salesreport/internal/store"
)

const maxUploadSize = 10 * 1024 * 1024

// 错误码
const (
	CodeNoFile       = 1001
	CodeBadFile      = 1002
	CodeFileTooLarge = 1003
	CodeBadSink      = 2001
	CodeSchema       = 2002
	CodeStore        = 2003
	CodeReport       = 3001
)

// Handlers API处理器
type Handlers struct {
	cfg      *config.AppConfig
	pipeline *report.Pipeline
	renderer *exporter.GonumRenderer
	dataDir  string
	logger   *zap.Logger

	// 导出文件缓存
	exports *exportStore
}

// NewHandlers 创建处理器
func NewHandlers(cfg *config.AppConfig, pipeline *report.Pipeline, renderer *exporter.GonumRenderer, dataDir string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cfg:      cfg,
		pipeline: pipeline,
		renderer: renderer,
		dataDir:  dataDir,
		logger:   logger,
		exports:  newExportStore(exportTTL),
	}
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// RegisterRoutes 注册路由
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reports", h.CreateReport)
	r.GET("/reports/:reportId/download", h.Download)
}

// CreateReport 上传工作簿并生成报告
func (h *Handlers) CreateReport(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, CodeNoFile, "请上传文件")
		return
	}
	file.Close()

	// 检查文件大小 (10MB)
	if header.Size > maxUploadSize {
		errorResponse(c, CodeFileTooLarge, "文件过大，最大支持10MB")
		return
	}

	// 检查文件格式
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		errorResponse(c, CodeBadFile, "仅支持 .xlsx 格式")
		return
	}

	reportID := uuid.New().String()
	upload := filepath.Join(h.dataDir, "uploads", reportID+".xlsx")
	if err := c.SaveUploadedFile(header, upload); err != nil {
		errorResponse(c, CodeBadFile, "保存上传文件失败")
		return
	}
	defer os.Remove(upload)

	kind := c.DefaultPostForm("sink", h.cfg.Report.Sink)
	sink, err := report.NewSink(report.SinkOptions{
		Kind:       kind,
		Template:   h.cfg.Report.Template,
		Placements: h.cfg.DeckPlacements(),
	}, h.renderer)
	if err != nil {
		errorResponse(c, CodeBadSink, "输出类型无效: "+err.Error())
		return
	}

	ext, contentType := ".png", "image/png"
	if kind == report.SinkDeck {
		ext, contentType = ".pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	output := filepath.Join(h.dataDir, "exports", reportID+ext)

	rep, err := h.pipeline.Run(c.Request.Context(), upload, sink, output)
	if err != nil {
		var se *parser.SchemaError
		switch {
		case errors.As(err, &se):
			errorResponse(c, CodeSchema, se.Error())
		case errors.Is(err, store.ErrStoreUnavailable):
			errorResponse(c, CodeStore, "暂存库不可用")
		default:
			errorResponse(c, CodeReport, "报告生成失败: "+err.Error())
		}
		return
	}

	export := h.exports.put(reportID, exportFile{
		Path:        output,
		FileName:    "salesreport" + ext,
		ContentType: contentType,
	})

	skipped := make([]string, 0, len(rep.Skipped()))
	for _, s := range rep.Skipped() {
		skipped = append(skipped, string(s))
	}
	c.Header("X-Report-Skipped", strings.Join(skipped, ","))

	success(c, gin.H{
		"reportId":    reportID,
		"runId":       rep.RunID,
		"downloadUrl": fmt.Sprintf("/api/reports/%s/download", reportID),
		"expiresAt":   export.ExpiresAt.Format(time.RFC3339),
		"charts":      rep.Charts,
	})
}

// Download 下载报告文件
func (h *Handlers) Download(c *gin.Context) {
	reportID := c.Param("reportId")

	f, ok := h.exports.get(reportID)
	if !ok {
		c.String(http.StatusNotFound, "文件不存在或已过期")
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+f.FileName)
	c.Header("Content-Type", f.ContentType)
	c.File(f.Path)
}
