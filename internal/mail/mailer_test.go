package mail

import (
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSMTP is a scripted SMTP server good for exactly one session. It records
// every command it receives so tests can observe whether STARTTLS was issued.
type fakeSMTP struct {
	listener net.Listener

	mu       sync.Mutex
	commands []string
	data     []string
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &fakeSMTP{listener: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, line)
}

func (s *fakeSMTP) sawCommand(verb string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cmd := range s.commands {
		if strings.HasPrefix(strings.ToUpper(cmd), verb) {
			return true
		}
	}
	return false
}

func (s *fakeSMTP) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.data, "\n")
}

func (s *fakeSMTP) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tc := textproto.NewConn(conn)
	_ = tc.PrintfLine("220 fake.example.com ESMTP")

	for {
		line, err := tc.ReadLine()
		if err != nil {
			return
		}
		s.record(line)

		verb := ""
		if fields := strings.Fields(line); len(fields) > 0 {
			verb = strings.ToUpper(fields[0])
		}
		switch verb {
		case "EHLO", "HELO":
			_ = tc.PrintfLine("250-fake.example.com")
			_ = tc.PrintfLine("250-AUTH PLAIN")
			_ = tc.PrintfLine("250 STARTTLS")
		case "STARTTLS":
			// Refuse the upgrade so the session ends without a TLS
			// handshake; the test only needs to see the command.
			_ = tc.PrintfLine("454 TLS not available")
		case "AUTH":
			_ = tc.PrintfLine("235 authentication succeeded")
		case "MAIL", "RCPT":
			_ = tc.PrintfLine("250 ok")
		case "DATA":
			_ = tc.PrintfLine("354 end with <CRLF>.<CRLF>")
			lines, err := tc.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = lines
			s.mu.Unlock()
			_ = tc.PrintfLine("250 message accepted")
		case "QUIT":
			_ = tc.PrintfLine("221 bye")
			return
		default:
			_ = tc.PrintfLine("250 ok")
		}
	}
}

func testMailer(server *fakeSMTP, useTLS bool) *Mailer {
	m := New(Config{
		Host:     "127.0.0.1",
		Port:     server.port(),
		Username: "reports@example.com",
		Password: "hunter2",
		UseTLS:   useTLS,
	})
	m.now = func() time.Time {
		return time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)
	}
	return m
}

func TestSend_PlainSession(t *testing.T) {
	server := startFakeSMTP(t)
	mailer := testMailer(server, false)

	err := mailer.Send("VDA Status Report", "report body\n", []string{"a@example.com", "b@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.sawCommand("STARTTLS") {
		t.Error("STARTTLS must not be issued when TLS is disabled")
	}
	if !server.sawCommand("AUTH") {
		t.Error("expected AUTH command")
	}

	msg := server.message()
	if !strings.Contains(msg, "From: reports@example.com") {
		t.Errorf("missing From header in message:\n%s", msg)
	}
	if !strings.Contains(msg, "To: a@example.com, b@example.com") {
		t.Errorf("missing joined To header in message:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject: VDA Status Report") {
		t.Errorf("missing Subject header in message:\n%s", msg)
	}
	if !strings.Contains(msg, "report body") {
		t.Errorf("missing body in message:\n%s", msg)
	}
}

func TestSend_TLSIssuesSTARTTLS(t *testing.T) {
	server := startFakeSMTP(t)
	mailer := testMailer(server, true)

	err := mailer.Send("VDA Status Report", "report body\n", []string{"a@example.com"})
	if err == nil {
		t.Fatal("expected error when server refuses STARTTLS")
	}

	if !server.sawCommand("STARTTLS") {
		t.Error("STARTTLS must be issued before login when TLS is enabled")
	}
	if server.sawCommand("AUTH") {
		t.Error("AUTH must not run after a failed STARTTLS")
	}
}

func TestSend_NoRecipients(t *testing.T) {
	mailer := New(Config{Host: "127.0.0.1", Port: 2525, Username: "reports@example.com"})
	if err := mailer.Send("subject", "body", nil); err == nil {
		t.Error("expected error for empty recipient list")
	}
}

func TestSend_InvalidRecipient(t *testing.T) {
	mailer := New(Config{Host: "127.0.0.1", Port: 2525, Username: "reports@example.com"})
	err := mailer.Send("subject", "body", []string{"bad@example.com\r\nBcc: evil@example.com"})
	if err == nil {
		t.Error("expected error for recipient with header injection")
	}
}

func TestSanitizeEmailHeader(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain@example.com", "plain@example.com"},
		{"evil\r\nBcc: other@example.com", "evil  Bcc: other@example.com"},
		{"null\x00byte", "nullbyte"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		if got := sanitizeEmailHeader(tt.input); got != tt.expected {
			t.Errorf("sanitizeEmailHeader(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateEmailAddress(t *testing.T) {
	if err := validateEmailAddress("user@example.com"); err != nil {
		t.Errorf("unexpected error for valid address: %v", err)
	}
	if err := validateEmailAddress("not-an-address"); err == nil {
		t.Error("expected error for address without @")
	}
	if err := validateEmailAddress("a@b\r\nX: y"); err == nil {
		t.Error("expected error for address with CRLF")
	}
}
