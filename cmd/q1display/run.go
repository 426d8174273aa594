package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/openq1/q1display/hardware/input"
	"github.com/openq1/q1display/hardware/nextion"
	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/page"
	"github.com/openq1/q1display/internal/router"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/tele"
	"github.com/openq1/q1display/log2"
	"github.com/openq1/q1display/printer/moonraker"
	"github.com/spf13/cobra"
)

func runMain(cmd *cobra.Command, _ []string) error {
	log := startLog()
	config, err := readConfig(log)
	if err != nil {
		log.Error(errors.ErrorStack(err))
		return err
	}
	log = configureLog(log, config)
	defer log.Close()
	log.Infof("q1display version=%s", BuildVersion)

	teler, err := tele.New(log, config.Tele, nil)
	if err != nil {
		return errors.Annotate(err, "tele")
	}
	// installed before any Clone so every component reports errors
	log.SetErrorFunc(teler.Error)

	session := state.NewSession(log, config)
	session.Tele = teler
	ctx := session.Context(context.Background())
	r := router.New(session, page.Default())

	display, err := nextion.NewDisplay(log, nextion.NewFileUart(), nextion.Options{
		Device:   config.Display.Device,
		Baud:     config.Display.Baud,
		Codepage: config.Display.Codepage,
		LogDebug: config.Display.LogDebug,
	}, r.OnDisplayEvent)
	if err != nil {
		return errors.Trace(err)
	}
	session.Display = display

	printer, err := moonraker.NewClient(log, moonraker.Options{
		URL:          config.Printer.URL,
		APIKey:       config.Printer.APIKey,
		Objects:      config.Printer.Objects,
		Timeout:      helpers.IntSecondDefault(config.Printer.TimeoutSec, moonraker.DefaultTimeout),
		PollInterval: helpers.IntSecondDefault(config.Printer.PollSec, moonraker.DefaultPollInterval),
		ReconnectMax: helpers.IntSecondDefault(config.Printer.ReconnectSec, 0),
		LogDebug:     config.Printer.LogDebug,
	}, moonraker.Callbacks{
		OnConnection: r.OnConnectionEvent,
		OnStatus:     r.OnPrinterStatusUpdate,
		OnFiles:      r.OnFileListUpdate,
	})
	if err != nil {
		return errors.Trace(err)
	}
	session.Printer = printer

	if err := startInput(ctx, session, r); err != nil {
		return err
	}
	if err := r.Init(ctx); err != nil {
		err = errors.Annotate(err, "init")
		log.Error(err)
		return err
	}
	sdnotify(daemon.SdNotifyReady)
	log.Debugf("init complete")

	go stopOnSignal(log, session)
	<-session.Alive.StopChan()
	sdnotify(daemon.SdNotifyStopping)
	shutdown(log, session)
	return nil
}

func startInput(ctx context.Context, session *state.Session, r *router.Router) error {
	conf := session.Config.Input.DevInputEvent
	if !conf.Enable {
		return nil
	}
	src, err := input.NewDevInputEventSource(conf.Device)
	if err != nil {
		return errors.Trace(err)
	}
	if !session.Alive.Add(1) {
		return errors.Errorf("code error startInput after stop")
	}
	go func() {
		defer session.Alive.Done()
		input.NewDispatch(session.Log, r.OnDisplayEvent).Run(ctx, []input.Source{src}, session.Alive.StopChan())
	}()
	return nil
}

func stopOnSignal(log *log2.Log, session *state.Session) {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigch
	log.Infof("signal=%v stopping", sig)
	session.Alive.Stop()
	// second signal or stuck shutdown
	select {
	case <-sigch:
	case <-time.After(10 * time.Second):
	}
	log.Fatal("forced exit")
}

// shutdown closes links first so no new events arrive, then waits handlers.
func shutdown(log *log2.Log, session *state.Session) {
	errs := []error{
		errors.Annotate(session.Printer.Close(), "printer close"),
		errors.Annotate(session.Display.Close(), "display close"),
	}
	if err := helpers.FoldErrors(errs); err != nil {
		log.Error(err)
	}
	session.Tele.Close()
	session.Alive.Wait()
	log.Infof("stopped")
}
