package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hamzawaheed/patient-registry/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of audit events
type AuditEventType string

const (
	EventLoginSuccess   AuditEventType = "LOGIN_SUCCESS"
	EventLoginFailure   AuditEventType = "LOGIN_FAILURE"
	EventSignupSuccess  AuditEventType = "SIGNUP_SUCCESS"
	EventLogout         AuditEventType = "LOGOUT"
	EventPatientCreated AuditEventType = "PATIENT_CREATED"
	EventPatientUpdated AuditEventType = "PATIENT_UPDATED"
	EventPatientDeleted AuditEventType = "PATIENT_DELETED"
	EventProfileSaved   AuditEventType = "PROFILE_SAVED"
	EventEndpointCall   AuditEventType = "ENDPOINT_CALL"
)

// AuditEvent represents an event to be journaled
type AuditEvent struct {
	EventType AuditEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditLogger *log.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets the gorm DB instance used to persist audit events.
// Call this during startup after DB initialization.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func init() {
	auditLogger = log.New(os.Stdout, "[AUDIT] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log
// parsing, and truncates very long values.
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent writes the event to stdout and, when a DB has been set,
// persists it to the audit_logs table. Persistence is best-effort: a failed
// write never fails the request that produced the event.
func LogAuditEvent(event AuditEvent) {
	msg := fmt.Sprintf("Event=%s UserID=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.UserID),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)
	if len(event.Details) > 0 {
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}
	auditLogger.Println(msg)

	if auditDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.AuditLog{
		EventType: string(event.EventType),
		UserID:    event.UserID,
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := auditDB.Create(&entry).Error; err != nil {
		auditLogger.Printf("Failed to persist audit event: %v", err)
	}
}

// LogLoginSuccess journals a successful login.
func LogLoginSuccess(userID uint, email, ip, userAgent string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginSuccess,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LogLoginFailure journals a failed login attempt with its reason.
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogPatientMutation journals a create/update/delete of a patient record.
func LogPatientMutation(eventType AuditEventType, userID uint, patientID uint, ip string) {
	LogAuditEvent(AuditEvent{
		EventType: eventType,
		UserID:    fmt.Sprintf("%d", userID),
		IP:        ip,
		Message:   fmt.Sprintf("Patient %d mutated", patientID),
		Details:   map[string]interface{}{"patient_id": patientID},
	})
}
