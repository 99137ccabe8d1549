package seclog

import "fmt"

func (l *Logger) LoginSuccess(userID int64, email, ip, userAgent string) {
	l.Security(EventLoginSuccess, "Login exitoso: "+email, Context{
		UserID: userID, UserEmail: email, IP: ip, UserAgent: userAgent,
	})
}

func (l *Logger) LoginFailure(email, ip, reason, userAgent string) {
	l.Security(EventLoginFailure, fmt.Sprintf("Login fallido: %s - %s", email, reason), Context{
		UserEmail: email, IP: ip, UserAgent: userAgent,
		Data: map[string]any{"reason": reason},
	})
}

func (l *Logger) Logout(userID int64, email, ip string) {
	l.Security(EventLogout, "Logout: "+email, Context{UserID: userID, UserEmail: email, IP: ip})
}

func (l *Logger) Register(userID int64, email, ip string) {
	l.Security(EventRegister, "Nuevo registro: "+email, Context{UserID: userID, UserEmail: email, IP: ip})
}

func (l *Logger) PasswordChange(userID int64, email, ip string) {
	l.Audit(EventPasswordChange, "Cambio de contraseña: "+email, Context{UserID: userID, UserEmail: email, IP: ip})
}

func (l *Logger) RateLimitExceeded(ip, endpoint, userAgent string) {
	l.Security(EventRateLimitExceeded, "Rate limit excedido: "+endpoint, Context{
		IP: ip, Endpoint: endpoint, UserAgent: userAgent,
	})
}

// SuspiciousActivity records an anomaly of the given kind, e.g. BODY_TOO_LARGE.
func (l *Logger) SuspiciousActivity(kind, ip, endpoint string, data map[string]any) {
	l.Security(EventSuspiciousActivity, "Actividad sospechosa: "+kind, Context{
		IP: ip, Endpoint: endpoint, Data: data,
	})
}

// SQLInjectionAttempt keeps only the first 100 characters of input.
func (l *Logger) SQLInjectionAttempt(ip, input, endpoint string) {
	l.Security(EventSQLInjectionAttempt, "Intento de SQL Injection detectado", Context{
		IP: ip, Endpoint: endpoint, Data: map[string]any{"input": clip(input)},
	})
}

// XSSAttempt keeps only the first 100 characters of input.
func (l *Logger) XSSAttempt(ip, input, endpoint string) {
	l.Security(EventXSSAttempt, "Intento de XSS detectado", Context{
		IP: ip, Endpoint: endpoint, Data: map[string]any{"input": clip(input)},
	})
}

// UnauthorizedAccess records a rejected request; userID and email are zero for anonymous callers.
func (l *Logger) UnauthorizedAccess(endpoint, ip string, userID int64, email string) {
	l.Security(EventUnauthorizedAccess, "Acceso no autorizado: "+endpoint, Context{
		UserID: userID, UserEmail: email, IP: ip, Endpoint: endpoint,
	})
}

func (l *Logger) PermissionDenied(endpoint, ip string, userID int64, email, requiredRole string) {
	l.Security(EventPermissionDenied, "Permiso denegado: "+endpoint, Context{
		UserID: userID, UserEmail: email, IP: ip, Endpoint: endpoint,
		Data: map[string]any{"requiredRole": requiredRole},
	})
}

func (l *Logger) FileUpload(userID int64, email, filename string, size int64, ip string) {
	l.Audit(EventFileUpload, "Archivo subido: "+filename, Context{
		UserID: userID, UserEmail: email, IP: ip,
		Data: map[string]any{"filename": filename, "size": size},
	})
}

// DataModification records action ("CREATE", "UPDATE", "DELETE") on entity #entityID.
func (l *Logger) DataModification(userID int64, email, entity, action string, entityID int64, ip string) {
	l.Audit(EventDataModification, fmt.Sprintf("%s en %s #%d", action, entity, entityID), Context{
		UserID: userID, UserEmail: email, IP: ip,
		Data: map[string]any{"entity": entity, "action": action, "entityId": entityID},
	})
}

func (l *Logger) APIKeyUsage(keyID, ip, endpoint string) {
	l.Security(EventAPIKeyUsage, "Uso de API key: "+keyID, Context{
		IP: ip, Endpoint: endpoint, Data: map[string]any{"keyId": keyID},
	})
}
