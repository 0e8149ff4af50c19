package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
)

// SMBCredentialsProvider asks the user for share credentials. It is the
// last stage of the credential chain, after memory, the keyring and the
// environment. Get blocks the calling goroutine, never the fyne one.
type SMBCredentialsProvider struct {
	parent fyne.Window
	// serializes prompts so two resolvers do not stack login dialogs
	mu sync.Mutex
}

func NewSMBCredentialsProvider(parent fyne.Window) *SMBCredentialsProvider {
	return &SMBCredentialsProvider{parent: parent}
}

// SetParent sets the window login dialogs are shown on.
func (p *SMBCredentialsProvider) SetParent(parent fyne.Window) {
	p.mu.Lock()
	p.parent = parent
	p.mu.Unlock()
}

func (p *SMBCredentialsProvider) Get(host, share, _ string) (fileinfo.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if creds, ok := fileinfo.GetCachedCredentials(host, share); ok {
		return creds, nil
	}
	parent := p.parent
	if parent == nil {
		return fileinfo.Credentials{}, apperrors.NewUIError("smb login", "no window to ask for "+host+"/"+share, apperrors.ErrCanceled)
	}

	type result struct {
		creds fileinfo.Credentials
		ok    bool
	}
	done := make(chan result, 1)

	fyne.Do(func() {
		userEntry := widget.NewEntry()
		passEntry := widget.NewPasswordEntry()
		domainEntry := widget.NewEntry()
		saveCheck := widget.NewCheck("Remember in the system keyring", nil)
		userEntry.SetPlaceHolder("username")
		domainEntry.SetPlaceHolder("domain (optional)")

		form := dialog.NewForm(
			"Connect to \\\\"+host+"\\"+share,
			"Connect",
			"Cancel",
			[]*widget.FormItem{
				widget.NewFormItem("Domain", domainEntry),
				widget.NewFormItem("Username", userEntry),
				widget.NewFormItem("Password", passEntry),
				widget.NewFormItem("", saveCheck),
			},
			func(ok bool) {
				done <- result{ok: ok, creds: fileinfo.Credentials{
					Domain:   domainEntry.Text,
					Username: userEntry.Text,
					Password: passEntry.Text,
					Persist:  saveCheck.Checked,
				}}
			},
			parent,
		)
		form.Resize(fyne.NewSize(420, 220))
		form.Show()
	})

	r := <-done
	if !r.ok {
		return fileinfo.Credentials{}, apperrors.NewUIError("smb login", "login canceled for "+host+"/"+share, apperrors.ErrCanceled)
	}
	return r.creds, nil
}
