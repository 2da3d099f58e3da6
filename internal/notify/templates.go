/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Email template names
const (
	TemplateOtp        = "otp"
	TemplateWithdrawal = "withdrawal"
	TemplateDeposit    = "deposit"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates holds one parsed set per email, each sharing the base layout
type Templates struct {
	sets map[string]*template.Template
}

func LoadTemplates() (*Templates, error) {
	t := &Templates{sets: map[string]*template.Template{}}
	for _, name := range []string{TemplateOtp, TemplateWithdrawal, TemplateDeposit} {
		set, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.sets[name] = set
	}
	return t, nil
}

// Render returns the subject and HTML body of the named email
func (t *Templates) Render(name string, data any) (string, string, error) {
	set, ok := t.sets[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}

	var subject, body bytes.Buffer
	if err := set.ExecuteTemplate(&subject, "subject", data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	if err := set.ExecuteTemplate(&body, "base", data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

// Title turns a snake_case purpose into a display title,
// e.g. "email_verification" -> "Email Verification".
func Title(purpose string) string {
	p := strings.ReplaceAll(purpose, "_", " ")
	return cases.Title(language.English).String(p)
}

// OtpMail is the data of the otp template
type OtpMail struct {
	Name         string
	Purpose      string
	Code         string
	ValidMinutes int
}

// WithdrawalMail is the data of the withdrawal template
type WithdrawalMail struct {
	Name    string
	Id      string
	Symbol  string
	Amount  string
	Fee     string
	Address string
	Network string
	Status  string
	TxHash  string
	Reason  string
}

// DepositMail is the data of the deposit template
type DepositMail struct {
	Name       string
	Id         string
	Symbol     string
	Amount     string
	Status     string
	NewBalance string
	Reason     string
}
