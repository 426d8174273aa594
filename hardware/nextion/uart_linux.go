package nextion

import (
	"os"
	"sync"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

type fileUart struct {
	mu sync.Mutex
	f  *os.File
}

func NewFileUart() Uarter { return &fileUart{} }

func (self *fileUart) Open(path string, baud int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.f != nil {
		self.f.Close()
		self.f = nil
	}
	f, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0600)
	if err != nil {
		return errors.Annotatef(err, "uart open path=%s", path)
	}
	if err = resetTermios(int(f.Fd()), baud); err != nil {
		f.Close()
		return errors.Annotatef(err, "uart termios path=%s", path)
	}
	self.f = f
	return nil
}

func (self *fileUart) file() (*os.File, error) {
	self.mu.Lock()
	f := self.f
	self.mu.Unlock()
	if f == nil {
		return nil, errors.New("uart not open")
	}
	return f, nil
}

func (self *fileUart) Read(p []byte) (int, error) {
	f, err := self.file()
	if err != nil {
		return 0, err
	}
	return f.Read(p)
}

func (self *fileUart) Write(p []byte) (int, error) {
	f, err := self.file()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

// Close unblocks concurrent Read with os.ErrClosed.
func (self *fileUart) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.f == nil {
		return nil
	}
	err := self.f.Close()
	self.f = nil
	return err
}

// raw 8N1, any baud rate via BOTHER
func resetTermios(fd int, baud int) error {
	if baud <= 0 {
		return errors.NotValidf("baud=%d", baud)
	}
	t2, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return errors.Trace(err)
	}
	t2.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t2.Oflag &^= unix.OPOST
	t2.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t2.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t2.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | unix.BOTHER
	t2.Ispeed = uint32(baud)
	t2.Ospeed = uint32(baud)
	t2.Cc[unix.VMIN] = 1
	t2.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, t2); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH))
}
