//go:build !linux

package nextion

import "github.com/juju/errors"

type fileUart struct{}

func NewFileUart() Uarter { return fileUart{} }

func (fileUart) Open(path string, baud int) error {
	return errors.NotSupportedf("serial uart on this platform")
}
func (fileUart) Read(p []byte) (int, error)  { return 0, errors.NotSupportedf("uart") }
func (fileUart) Write(p []byte) (int, error) { return 0, errors.NotSupportedf("uart") }
func (fileUart) Close() error                { return nil }
