package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/ndio/config"
	"github.com/janelia-flyem/ndio/cutout"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/remote"
)

// command holds the settings shared by all ndcutout commands.
type command struct {
	cfg  *config.Config
	dest *config.Config

	resolution int
	timeRange  string
	out        io.Writer
}

// run dispatches args[0] to the named command.
func (cmd *command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}
	name, args := args[0], args[1:]
	switch name {
	case "get":
		return cmd.get(ctx, args)
	case "post":
		return cmd.post(ctx, args)
	case "info":
		return cmd.info(ctx, args)
	case "transfer":
		return cmd.transfer(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func (cmd *command) shutdown() {
	cmd.cfg.Shutdown()
	if cmd.dest != nil {
		cmd.dest.Shutdown()
	}
}

// cutoutArgs parses "<resource> <x0:x1> <y0:y1> <z0:z1>" and the time range.
func (cmd *command) cutoutArgs(args []string) (res remote.Resource, x, y, z ndio.Span, t *ndio.Span, err error) {
	if len(args) < 4 {
		err = fmt.Errorf("expected resource and x, y, z ranges, got %v", args)
		return
	}
	if res, err = remote.ParseResource(args[0]); err != nil {
		return
	}
	spans := []*ndio.Span{&x, &y, &z}
	for i, sp := range spans {
		if *sp, err = ndio.StringToSpan(args[i+1], ":"); err != nil {
			return
		}
	}
	if cmd.timeRange != "" {
		var span ndio.Span
		if span, err = ndio.StringToSpan(cmd.timeRange, ":"); err != nil {
			return
		}
		t = &span
	}
	return
}

func (cmd *command) get(ctx context.Context, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("get requires <resource> <x0:x1> <y0:y1> <z0:z1> <output>")
	}
	res, x, y, z, t, err := cmd.cutoutArgs(args)
	if err != nil {
		return err
	}
	client, err := cmd.cfg.NewClient()
	if err != nil {
		return err
	}
	vol, err := client.Fetch(ctx, res, cmd.resolution, x, y, z, t)
	if err != nil {
		return err
	}
	if err := writeVolume(ctx, args[4], vol); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "Wrote %s %s volume %v to %s\n", humanize.Bytes(uint64(vol.NumBytes())), vol.Type, vol.Shape, args[4])
	return nil
}

func (cmd *command) post(ctx context.Context, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("post requires <resource> <x0:x1> <y0:y1> <z0:z1> <input>")
	}
	res, x, y, z, t, err := cmd.cutoutArgs(args)
	if err != nil {
		return err
	}
	vol, err := readVolume(ctx, args[4])
	if err != nil {
		return err
	}
	client, err := cmd.cfg.NewClient()
	if err != nil {
		return err
	}
	if err := client.Upload(ctx, res, cmd.resolution, x, y, z, vol, t); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "Uploaded %s from %s to %s\n", humanize.Bytes(uint64(vol.NumBytes())), args[4], res)
	return nil
}

func (cmd *command) info(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info requires <resource>")
	}
	res, err := remote.ParseResource(args[0])
	if err != nil {
		return err
	}
	svc, err := cmd.cfg.NewService()
	if err != nil {
		return err
	}
	info, err := svc.ChannelInfo(ctx, res)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// transfer copies a cutout from the source service to the destination service,
// which may be the same.  The destination box has the same coordinates.
func (cmd *command) transfer(ctx context.Context, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("transfer requires <resource> <x0:x1> <y0:y1> <z0:z1> <dest resource>")
	}
	res, x, y, z, t, err := cmd.cutoutArgs(args)
	if err != nil {
		return err
	}
	destRes, err := remote.ParseResource(args[4])
	if err != nil {
		return err
	}
	src, err := cmd.cfg.NewClient()
	if err != nil {
		return err
	}
	var dst *cutout.Client
	if cmd.dest != nil {
		dst, err = cmd.dest.NewClient()
	} else {
		dst, err = cmd.cfg.NewClient()
	}
	if err != nil {
		return err
	}
	timedLog := ndio.NewTimeLog()
	vol, err := src.Fetch(ctx, res, cmd.resolution, x, y, z, t)
	if err != nil {
		return err
	}
	if err := dst.Upload(ctx, destRes, cmd.resolution, x, y, z, vol, t); err != nil {
		return err
	}
	timedLog.Infof("Transferred %s from %s to %s", humanize.Bytes(uint64(vol.NumBytes())), res, destRes)
	fmt.Fprintf(cmd.out, "Transferred %s from %s to %s\n", humanize.Bytes(uint64(vol.NumBytes())), res, destRes)
	return nil
}
