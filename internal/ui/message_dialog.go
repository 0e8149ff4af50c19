package ui

import (
	"context"
	stderrors "errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	apperrors "shellview/internal/errors"
)

// ShowMessageDialog displays a simple OK dialog with a title and message.
// It returns immediately after showing.
func ShowMessageDialog(parent fyne.Window, title, message string) {
	d := dialog.NewInformation(title, message, parent)
	d.Show()
}

// ShowErrorDialog reports err. Cancellations are not errors to the user
// and are swallowed; access failures get their own title.
func ShowErrorDialog(parent fyne.Window, err error) {
	if err == nil || stderrors.Is(err, apperrors.ErrCanceled) || stderrors.Is(err, context.Canceled) {
		return
	}
	title := "Error"
	switch {
	case apperrors.IsSecurity(err):
		title = "Access denied"
	case stderrors.Is(err, apperrors.ErrPathNotFound):
		title = "Not found"
	case stderrors.Is(err, apperrors.ErrAlreadyExists):
		title = "Already exists"
	}
	ShowMessageDialog(parent, title, err.Error())
}
