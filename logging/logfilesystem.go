package logging

import (
	"os"
)

// LogFile is the interface to handle log file append
type LogFile interface {
	Append(content []byte) (err error)
	Close() error
}

// LogFileSystem is the interface to handle log file directory creation and file open/append
type LogFileSystem interface {
	MkDir(dirname string) error
	Open(name string) (f LogFile, err error)
}

// LogFileImpl is the implementation for log file
type LogFileImpl struct {
	f *os.File
}

// Append writes content at the end of the file.
func (fs *LogFileImpl) Append(content []byte) (err error) {
	_, err = fs.f.Write(content)
	return
}

// Close closes the underlying file.
func (fs *LogFileImpl) Close() error {
	return fs.f.Close()
}

// LogFileSystemImpl is the implementation for log file interface
type LogFileSystemImpl struct {
}

// MkDir creates a directory named path, along with any necessary parents. If path is already a directory, MkDir does nothing.
func (fs *LogFileSystemImpl) MkDir(name string) error {
	return os.MkdirAll(name, 0755)
}

// Open opens the file for appending, creating it if needed.
func (fs *LogFileSystemImpl) Open(name string) (ff LogFile, err error) {
	var f *os.File
	f, err = os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}

	ff = &LogFileImpl{
		f: f,
	}
	return
}
