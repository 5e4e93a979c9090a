package config

import (
	openai "github.com/openai/openai-go/v3"

	"herald/internal/bridge"
	"herald/internal/dispatch"
	"herald/internal/intent"
	"herald/internal/session"
)

// BridgeConfig applies the phrasebook persona to the bridge defaults.
func (pb *Phrasebook) BridgeConfig(model string) bridge.Config {
	cfg := bridge.DefaultConfig()
	if model != "" {
		cfg.Model = openai.ChatModel(model)
	}
	if pb != nil && pb.Persona != "" {
		cfg.Persona = pb.Persona
	}
	return cfg
}

// DispatchOptions carries the farewell and the handler and bridge timeouts.
func (pb *Phrasebook) DispatchOptions() []dispatch.Option {
	if pb == nil {
		return nil
	}

	opts := []dispatch.Option{dispatch.WithFarewell(pb.Farewell)}
	if pb.Timeouts.Handler > 0 {
		opts = append(opts, dispatch.WithHandlerTimeout(pb.Timeouts.Handler))
	}
	if pb.Timeouts.Bridge > 0 {
		opts = append(opts, dispatch.WithBridgeTimeout(pb.Timeouts.Bridge))
	}
	return opts
}

// Session builds the dispatcher, the activation machine and the loop
// config shared by every front end.
func (pb *Phrasebook) Session(handlers map[intent.Key]dispatch.Handler, ai dispatch.Bridge, keepAlive bool) (*session.Machine, session.Config, error) {
	d := dispatch.New(intent.Default(), handlers, ai, pb.DispatchOptions()...)

	var mopts []session.MachineOption
	if pb != nil {
		mopts = append(mopts, session.WithGreeting(pb.Greeting))
	}
	m, err := session.NewMachine(d, pb.ActivationPhrases(), mopts...)
	if err != nil {
		return nil, session.Config{}, err
	}

	cfg := pb.Apply(session.DefaultConfig())
	cfg.KeepAlive = keepAlive
	return m, cfg, nil
}
