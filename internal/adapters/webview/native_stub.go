//go:build !cgo

package webview

import (
	"context"

	"serenity-browser/internal/domain/model"

	"pkt.systems/pslog"
)

// Native 在无 CGO 构建中不可用，NewNative 总是返回 ErrNativeUnavailable。
type Native struct{}

func NewNative(pslog.Logger, bool) (*Native, error) {
	return nil, ErrNativeUnavailable
}

func (*Native) Open(context.Context, model.WindowSpec, func()) (model.WebviewHandle, error) {
	return nil, ErrNativeUnavailable
}

func RunMainWindow(context.Context, pslog.Logger, MainWindowOptions, []Binding) error {
	return ErrNativeUnavailable
}
