package handler

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/errcode"
	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/response"
	"github.com/Pallavikumarimdb/VexonAI/internal/service"
)

type QuestionHandler struct {
	answers *service.AnswerService
	md      goldmark.Markdown
}

func NewQuestionHandler(answers *service.AnswerService) *QuestionHandler {
	return &QuestionHandler{
		answers: answers,
		md:      goldmark.New(),
	}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask streams the generated answer as server-sent events. The first event
// carries the ranked file references, each following chunk event one piece
// of the answer.
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	stream, refs, err := h.answers.Ask(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}

	refData, err := json.Marshal(refs)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.SSEvent("references", string(refData))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-stream
		if !ok {
			c.SSEvent("done", "")
			return false
		}
		c.SSEvent("chunk", chunk)
		return true
	})
}

type saveAnswerRequest struct {
	UserID         string                `json:"user_id"`
	Question       string                `json:"question"`
	Answer         string                `json:"answer"`
	FileReferences []model.FileReference `json:"file_references"`
}

func (h *QuestionHandler) Save(c *gin.Context) {
	var req saveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	question, err := h.answers.Save(c.Request.Context(), c.Param("id"), req.UserID, req.Question, req.Answer, req.FileReferences)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, question)
}

func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.answers.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if c.Query("render") == "html" {
		rendered := make([]gin.H, 0, len(questions))
		for _, question := range questions {
			rendered = append(rendered, gin.H{
				"question":    question,
				"answer_html": h.renderMarkdown(question.Answer),
			})
		}
		response.Success(c, gin.H{"questions": rendered})
		return
	}
	response.Success(c, gin.H{"questions": questions})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.answers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if c.Query("render") == "html" {
		response.Success(c, gin.H{
			"question":    question,
			"answer_html": h.renderMarkdown(question.Answer),
		})
		return
	}
	response.Success(c, question)
}

func (h *QuestionHandler) renderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(source), &buf); err != nil {
		return ""
	}
	return buf.String()
}
