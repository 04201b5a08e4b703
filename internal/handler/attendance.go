package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eas/internal/apierr"
	"eas/internal/attendance"
	"eas/internal/event"
	"eas/internal/user"
)

// verifyQR resolves a scanned code and echoes the student profile so the
// client can prefill the submission form.
func (h *Handler) verifyQR(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var in struct {
		QRToken   string   `json:"qr_token" binding:"required"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.attendance.VerifyQR(c.Request.Context(), scope, in.QRToken, event.ScanMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	student, err := h.users.Get(c.Request.Context(), scope.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, struct {
		attendance.VerifyResult
		Student *user.User `json:"student,omitempty"`
	}{res, student})
}

// submitAttendance accepts either multipart/form-data with image files or a
// JSON body with base64 data URLs.
func (h *Handler) submitAttendance(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}

	var (
		sub attendance.Submission
		err error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		sub, err = bindMultipartSubmission(c)
	} else {
		sub, err = bindJSONSubmission(c)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	sub.IP = c.ClientIP()
	sub.UserAgent = c.Request.UserAgent()

	rec, err := h.attendance.Submit(c.Request.Context(), scope, sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attendance": rec})
}

func bindJSONSubmission(c *gin.Context) (attendance.Submission, error) {
	var in struct {
		QRToken    string   `json:"qr_token" binding:"required"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		Accuracy   *float64 `json:"accuracy"`
		FrontPhoto string   `json:"front_photo"`
		BackPhoto  string   `json:"back_photo"`
		Signature  string   `json:"signature"`
		DeviceInfo string   `json:"device_info"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		return attendance.Submission{}, apierr.Newf(apierr.CodeValidationError, "invalid request: %v", err)
	}
	return attendance.Submission{
		Token:      in.QRToken,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Accuracy:   in.Accuracy,
		FrontPhoto: attendance.Image{DataURL: in.FrontPhoto},
		BackPhoto:  attendance.Image{DataURL: in.BackPhoto},
		Signature:  attendance.Image{DataURL: in.Signature},
		DeviceInfo: in.DeviceInfo,
	}, nil
}

func bindMultipartSubmission(c *gin.Context) (attendance.Submission, error) {
	sub := attendance.Submission{
		Token:      c.PostForm("qr_token"),
		DeviceInfo: c.PostForm("device_info"),
	}
	if sub.Token == "" {
		return attendance.Submission{}, apierr.New(apierr.CodeValidationError, "qr_token field is required")
	}
	var err error
	if sub.Latitude, err = formFloat(c, "latitude"); err != nil {
		return attendance.Submission{}, err
	}
	if sub.Longitude, err = formFloat(c, "longitude"); err != nil {
		return attendance.Submission{}, err
	}
	if sub.Accuracy, err = formFloat(c, "accuracy"); err != nil {
		return attendance.Submission{}, err
	}
	if sub.FrontPhoto, err = formImage(c, "front_photo"); err != nil {
		return attendance.Submission{}, err
	}
	if sub.BackPhoto, err = formImage(c, "back_photo"); err != nil {
		return attendance.Submission{}, err
	}
	if sub.Signature, err = formImage(c, "signature"); err != nil {
		return attendance.Submission{}, err
	}
	return sub, nil
}

func formFloat(c *gin.Context, name string) (*float64, error) {
	v := c.PostForm(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apierr.Newf(apierr.CodeValidationError, "%s %q is not a number", name, v)
	}
	return &f, nil
}

func formImage(c *gin.Context, name string) (attendance.Image, error) {
	file, header, err := c.Request.FormFile(name)
	if err != nil {
		if err == http.ErrMissingFile {
			return attendance.Image{}, nil
		}
		return attendance.Image{}, apierr.Newf(apierr.CodeValidationError, "read %s: %v", name, err)
	}
	defer file.Close()

	const maxImageBytes = 10 << 20
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return attendance.Image{}, apierr.Newf(apierr.CodeValidationError, "read %s: %v", name, err)
	}
	if len(data) > maxImageBytes {
		return attendance.Image{}, apierr.Newf(apierr.CodeValidationError, "%s exceeds 10MB", name)
	}
	return attendance.Image{Bytes: data, Filename: header.Filename}, nil
}

func (h *Handler) listAttendance(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	requested, err := queryCampusID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	f := attendance.Filter{
		EventID: c.Query("event_id"),
		UserID:  c.Query("user_id"),
		Status:  attendance.VerificationStatus(c.Query("status")),
		Limit:   queryInt(c, "limit", 0),
		Offset:  queryInt(c, "offset", 0),
	}
	if f.Status != "" && !f.Status.Valid() {
		respondError(c, apierr.Newf(apierr.CodeValidationError, "unknown status %q", f.Status))
		return
	}
	recs, err := h.attendance.List(c.Request.Context(), scope, requested, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": recs})
}

func (h *Handler) attendanceDetail(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	rec, audit, err := h.attendance.Detail(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": rec, "audit": audit})
}

func (h *Handler) reviewAttendance(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var in attendance.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	rec, err := h.attendance.Review(c.Request.Context(), scope, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": rec})
}
