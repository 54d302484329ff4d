package scenario

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

const (
	exchangeOnlineAppID   = "029f5f70-1642-2096-26f6-00cc4012391f"
	exchangeOnlineAppName = "Exchange Online"

	defaultMailSender  = "alerts@security.microsoft.com"
	defaultMailSubject = "\U0001F510 Unusual Sign-in Attempt Detected - Review Immediately"
	defaultMailURL     = "https://login.microsoftonline.com-reset-verify.com/session"

	defaultAttachmentName = "Review_Security_Alert.html"
	defaultAttachmentMIME = "text/html"
	defaultAttachmentSize = 4821

	mailReturnPath = "<bounce@contoso.com>"
	mailMimeHeader = `multipart/alternative; boundary="----=_Part_12345_67890.1693673950"`
)

// Email is the nested message block attached to a phishing-delivery record.
type Email struct {
	Sender          string      `json:"Sender"`
	Recipients      []string    `json:"Recipients"`
	CC              []string    `json:"CC"`
	BCC             []string    `json:"BCC"`
	Subject         string      `json:"Subject"`
	Data            string      `json:"Data"`
	Mime            string      `json:"Mime"`
	ReturnPath      string      `json:"ReturnPath"`
	MessageID       string      `json:"MessageId"`
	DeliveryTime    string      `json:"DeliveryTime"`
	OriginationTime string      `json:"OriginationTime"`
	Attachment      *Attachment `json:"Attachment,omitempty"`
}

// Attachment describes the optional payload of a phishing message.
type Attachment struct {
	Filename        string `json:"filename"`
	Path            string `json:"path"`
	Directory       string `json:"directory"`
	Extension       string `json:"extension"`
	FileType        string `json:"file_type"`
	MD5             string `json:"md5"`
	SHA256          string `json:"sha256"`
	IsSigned        bool   `json:"is_signed"`
	Signer          string `json:"signer"`
	SignatureStatus string `json:"signature_status"`
	Size            int    `json:"size"`
}

// PhishMailParams configure the phishing-mail delivery narrative. Zero-value
// content fields take the canned defaults.
type PhishMailParams struct {
	UserID   string
	HoursAgo int

	Sender  string
	Subject string
	URL     string

	NoAttachment   bool
	AttachmentName string
	AttachmentMIME string
	AttachmentSize int
}

func (p *PhishMailParams) applyDefaults() {
	if p.Sender == "" {
		p.Sender = defaultMailSender
	}
	if p.Subject == "" {
		p.Subject = defaultMailSubject
	}
	if p.URL == "" {
		p.URL = defaultMailURL
	}
	if p.AttachmentName == "" {
		p.AttachmentName = defaultAttachmentName
	}
	if p.AttachmentMIME == "" {
		p.AttachmentMIME = defaultAttachmentMIME
	}
	if p.AttachmentSize == 0 {
		p.AttachmentSize = defaultAttachmentSize
	}
}

// AttachmentDigests derives the attachment's content digests from the message
// subject, URL, and filename. The derivation is deterministic so repeated
// runs with identical inputs produce identical fixtures, which enables
// exact-match regression tests downstream.
func AttachmentDigests(subject, url, filename string) (md5Hex, sha256Hex string) {
	seed := []byte(subject + url + filename)
	m := md5.Sum(seed)
	s := sha256.Sum256(seed)
	return hex.EncodeToString(m[:]), hex.EncodeToString(s[:])
}

// mailboxPath guesses a plausible local mail-client cache path for the
// recipient's attachment.
func mailboxPath(recipient, filename string) (dir, path string) {
	local := recipient
	if i := strings.IndexByte(recipient, '@'); i >= 0 {
		local = recipient[:i]
	}
	dir = fmt.Sprintf("/Users/%s/Library/Mail/Attachments/", local)
	return dir, dir + filename
}

// PhishMail emits a single mail-receipt record enriched with the nested
// Email block.
func PhishMail(ctx context.Context, g *simulate.Generator, p PhishMailParams, dest kawa.Destination[types.Record]) error {
	p.applyDefaults()

	user, err := g.Config().UserByID(p.UserID)
	if err != nil {
		return err
	}
	mailOp, err := g.Config().OperationByName("MailReceived")
	if err != nil {
		return err
	}

	ts := time.Now().UTC().Add(-time.Duration(p.HoursAgo) * time.Hour)
	tsText := ts.Format(time.RFC3339)

	// Thread the message content through the resolver so the template's
	// phishing-content placeholders carry it too.
	recipient := user
	recipient.Mail = types.MailContent{Sender: p.Sender, Subject: p.Subject, URL: p.URL}

	record := g.Render(g.Resolve(simulate.ResolveInput{
		Entity:    recipient,
		Operation: mailOp,
		Timestamp: ts,
	}))

	record["_time"] = tsText
	record["AppId"] = exchangeOnlineAppID
	record["AppDisplayName"] = exchangeOnlineAppName
	record["MaliciousLink"] = p.URL
	record["Resource"] = "Mailbox"

	email := Email{
		Sender:     p.Sender,
		Recipients: []string{p.UserID},
		CC:         []string{},
		BCC:        []string{},
		Subject:    p.Subject,
		Data: fmt.Sprintf(
			"Heads up! We detected an unusual sign-in attempt.\n\nReview: %s\n", p.URL),
		Mime:            mailMimeHeader,
		ReturnPath:      mailReturnPath,
		MessageID:       fmt.Sprintf("<%s@security.microsoft.com>", g.NewEventID()),
		DeliveryTime:    tsText,
		OriginationTime: tsText,
	}

	if !p.NoAttachment {
		md5Hex, sha256Hex := AttachmentDigests(p.Subject, p.URL, p.AttachmentName)
		dir, path := mailboxPath(p.UserID, p.AttachmentName)
		ext := ""
		if i := strings.LastIndexByte(p.AttachmentName, '.'); i >= 0 {
			ext = p.AttachmentName[i+1:]
		}
		email.Attachment = &Attachment{
			Filename:        p.AttachmentName,
			Path:            path,
			Directory:       dir,
			Extension:       ext,
			FileType:        p.AttachmentMIME,
			MD5:             md5Hex,
			SHA256:          sha256Hex,
			IsSigned:        false,
			SignatureStatus: "UNSIGNED",
			Size:            p.AttachmentSize,
		}
	}
	record["Email"] = email

	return simulate.Deliver(ctx, dest, record)
}
