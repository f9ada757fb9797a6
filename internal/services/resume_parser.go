package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/strove-app/strove/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// ResumeKind decides which prompt and model a resume gets.
type ResumeKind string

const (
	ResumeKindPDF   ResumeKind = "pdf"
	ResumeKindImage ResumeKind = "image"
	ResumeKindText  ResumeKind = "text"
)

// Vision reports whether the kind needs a vision-capable model.
func (k ResumeKind) Vision() bool { return k == ResumeKindPDF || k == ResumeKindImage }

const maxResumeTextBytes = 20000

var (
	ErrResumeRequired = errors.New("resume file is required")
	ErrInvalidResume  = errors.New("resume is not valid base64 data")
	ErrNoJSON         = errors.New("could not parse JSON from AI response")
	ErrEmptyResponse  = errors.New("invalid response from model")
)

// ResumeUpload is the body of POST /api/parse-resume.
type ResumeUpload struct {
	Resume   string `json:"resume"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// ResumeExtraction holds the fields pulled out of a resume.
type ResumeExtraction struct {
	GPA            *string                 `json:"gpa"`
	WorkExperience []models.WorkExperience `json:"workExperience"`
}

// EmptyExtraction is what callers get when nothing could be extracted.
func EmptyExtraction() *ResumeExtraction {
	return &ResumeExtraction{WorkExperience: []models.WorkExperience{}}
}

// DecodedResume is a ResumeUpload with its payload decoded and classified.
type DecodedResume struct {
	FileName string
	MIMEType string
	Data     []byte
	Kind     ResumeKind
}

// DecodeResume accepts either a data URL ("data:<type>;base64,<payload>") or
// bare base64 and classifies the file. Declared types win over sniffing; the
// bytes are only sniffed when no type was given.
func DecodeResume(u ResumeUpload) (*DecodedResume, error) {
	if strings.TrimSpace(u.Resume) == "" {
		return nil, ErrResumeRequired
	}

	payload := u.Resume
	declared := strings.TrimSpace(strings.ToLower(u.FileType))
	if strings.HasPrefix(payload, "data:") {
		header, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, ErrInvalidResume
		}
		payload = rest
		if declared == "" {
			declared = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
		}
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}

	d := &DecodedResume{FileName: u.FileName, MIMEType: declared, Data: data}
	if d.MIMEType == "" {
		d.MIMEType = mimetype.Detect(data).String()
	}

	switch {
	case d.MIMEType == "application/pdf" || strings.HasSuffix(strings.ToLower(u.FileName), ".pdf"):
		d.Kind = ResumeKindPDF
		d.MIMEType = "application/pdf"
	case strings.HasPrefix(d.MIMEType, "image/"):
		d.Kind = ResumeKindImage
	default:
		d.Kind = ResumeKindText
	}
	return d, nil
}

// Text returns the resume as plain text when the payload is readable text.
func (d *DecodedResume) Text() (string, bool) {
	if d.Kind != ResumeKindText || len(d.Data) == 0 {
		return "", false
	}
	if !strings.HasPrefix(mimetype.Detect(d.Data).String(), "text/") || !utf8.Valid(d.Data) {
		return "", false
	}
	text := d.Data
	if len(text) > maxResumeTextBytes {
		text = text[:maxResumeTextBytes]
	}
	return strings.ToValidUTF8(string(text), ""), true
}

const ResumeSystemPrompt = `You are a resume parser. Extract the following information from the resume and return ONLY a valid JSON object with this structure:
{
  "gpa": "3.85" or null if not found (look for GPA, Grade Point Average, or similar),
  "workExperience": [
    {
      "title": "Job Title",
      "company": "Company Name",
      "location": "City, State" or null,
      "startDate": "Month Year" or null,
      "endDate": "Month Year" or "Present" or null,
      "description": "Job description" or null
    }
  ]
}
Return only the JSON, no additional text. If information is not found, use null or empty arrays.`

// FileContent is a binary part that keeps the uploaded file's name.
type FileContent struct {
	llms.BinaryContent
	Name string
}

func FilePart(name, mimeType string, data []byte) FileContent {
	return FileContent{BinaryContent: llms.BinaryPart(mimeType, data), Name: name}
}

// BuildResumePrompt returns the chat messages for a decoded resume.
func BuildResumePrompt(d *DecodedResume) []llms.MessageContent {
	system := llms.TextParts(llms.ChatMessageTypeSystem, ResumeSystemPrompt)

	var user llms.MessageContent
	switch d.Kind {
	case ResumeKindPDF:
		user = llms.MessageContent{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Parse this resume PDF (file: %s) and extract GPA and work experience. Extract all work experience entries you can find.", d.FileName)),
				FilePart(d.FileName, d.MIMEType, d.Data),
			},
		}
	case ResumeKindImage:
		user = llms.MessageContent{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Parse this resume image (file: %s) and extract GPA and work experience. Extract all work experience entries.", d.FileName)),
				llms.BinaryPart(d.MIMEType, d.Data),
			},
		}
	default:
		if text, ok := d.Text(); ok {
			user = llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(
				"Parse this resume text and extract GPA and work experience. The resume file name is: %s.\n\nResume text:\n\"\"\"\n%s\n\"\"\"", d.FileName, text))
		} else {
			user = llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(
				`Parse this resume text and extract GPA and work experience. The resume file name is: %s. If you cannot extract readable text from the provided data, return {"gpa": null, "workExperience": []}.`, d.FileName))
		}
	}
	return []llms.MessageContent{system, user}
}

// first '{' through last '}', like /\{[\s\S]*\}/
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON decodes content into v, falling back to the outermost
// brace-delimited block when the reply carries extra prose.
func ExtractJSON(content string, v any) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}
	block := jsonBlock.FindString(content)
	if block == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return nil
}

type rawExtraction struct {
	GPA            json.RawMessage         `json:"gpa"`
	WorkExperience []models.WorkExperience `json:"workExperience"`
}

// ParseExtraction turns a model reply into a ResumeExtraction.
func ParseExtraction(content string) (*ResumeExtraction, error) {
	var raw rawExtraction
	if err := ExtractJSON(content, &raw); err != nil {
		return nil, err
	}
	out := &ResumeExtraction{
		GPA:            normalizeGPA(raw.GPA),
		WorkExperience: raw.WorkExperience,
	}
	if out.WorkExperience == nil {
		out.WorkExperience = []models.WorkExperience{}
	}
	return out, nil
}

// normalizeGPA accepts "3.85" or 3.85; anything empty becomes nil.
func normalizeGPA(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}
	return nil
}
