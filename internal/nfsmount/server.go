package nfsmount

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os/exec"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// Server manages the NFS server lifecycle for one mounted workspace.
type Server struct {
	listener net.Listener
	port     int
}

// NewServer starts an NFS server on an ephemeral port backed by the
// given filesystem.
func NewServer(fs billy.Filesystem) (*Server, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := nfshelper.NewNullAuthHandler(fs)
	cacheHelper := nfshelper.NewCachingHandler(handler, 4096)

	go func() {
		if err := nfs.Serve(listener, cacheHelper); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("nfs server stopped: %v", err)
		}
	}()

	return &Server{listener: listener, port: port}, nil
}

// Port returns the TCP port the NFS server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Close stops the NFS server by closing the listener.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Mount calls the system mount command to mount the NFS server at
// mountpoint. Requires sudo on macOS.
func Mount(port int, mountpoint string, writable bool) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		opts := fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,locallocks,noresvport", port, port)
		if !writable {
			opts += ",rdonly"
		}
		cmd = exec.Command("sudo", "mount", "-t", "nfs",
			"-o", opts,
			"localhost:/", mountpoint)
	case "linux":
		opts := fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,nolock", port, port)
		if !writable {
			opts += ",ro"
		}
		cmd = exec.Command("sudo", "mount", "-t", "nfs",
			"-o", opts,
			"localhost:/", mountpoint)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mount failed: %w\n%s", err, out)
	}
	return nil
}

// Unmount detaches the workspace mount.
func Unmount(mountpoint string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("sudo", "umount", mountpoint)
	case "linux":
		cmd = exec.Command("sudo", "umount", mountpoint)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("unmount failed: %w\n%s", err, out)
	}
	return nil
}
