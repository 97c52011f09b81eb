package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/san-kum/popdyn/internal/chart"
	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/optim"
)

type modelInfo struct {
	Name     string   `json:"name"`
	Defaults any      `json:"defaults"`
	Presets  []string `json:"presets"`
}

type sweepBody struct {
	Preset     string             `json:"preset,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
	Integrator string             `json:"integrator,omitempty"`
	Axes       []optim.Axis       `json:"axes"`
	Metric     string             `json:"metric"`
	Maximize   bool               `json:"maximize,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	var out []modelInfo
	for _, name := range s.reg.ListModels() {
		req, err := s.reg.New(name)
		if err != nil {
			respondError(w, err)
			return
		}
		out = append(out, modelInfo{Name: name, Defaults: req.GetParams(), Presets: config.ListPresets(name)})
	}
	out = append(out, modelInfo{
		Name:     experiment.FieldModel,
		Defaults: s.reg.NewField().Spec(),
		Presets:  config.ListPresets(experiment.FieldModel),
	})
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	names := config.ListPresets(model)
	if names == nil {
		respondError(w, experiment.UnknownModel(model))
		return
	}

	presets := make(map[string]any, len(names))
	for _, name := range names {
		if model == experiment.FieldModel {
			req, err := s.reg.FieldPreset(name)
			if err != nil {
				respondError(w, err)
				return
			}
			presets[name] = req.Spec()
			continue
		}
		req, err := s.reg.Preset(model, name)
		if err != nil {
			respondError(w, err)
			return
		}
		presets[name] = req.GetParams()
	}
	respondJSON(w, http.StatusOK, map[string]any{"model": model, "presets": presets})
}

// request builds the request for the route's model: the preset named by
// ?preset= (or the defaults), overlaid with the JSON body.
func (s *Server) request(r *http.Request) (experiment.Request, error) {
	model := chi.URLParam(r, "model")
	var (
		req experiment.Request
		err error
	)
	if preset := r.URL.Query().Get("preset"); preset != "" {
		req, err = s.reg.Preset(model, preset)
	} else {
		req, err = s.reg.New(model)
	}
	if err != nil {
		return nil, err
	}
	if err := decodeBody(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) solveRequest(r *http.Request) (*experiment.Response, error) {
	req, err := s.request(r)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(r.Context(), solveTimeout)
	defer cancel()

	resp, err := req.Solve(ctx)
	s.metrics.Solves.WithLabelValues(req.Model(), outcome(err)).Inc()
	if err != nil {
		s.logger.Debug("solve failed",
			zap.String("model", req.Model()),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	return resp, err
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request) {
	resp, err := s.solveRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) solveChart(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, err)
		return
	}
	resp, err := s.solveRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Trajectory(&buf, resp, format); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) field(w http.ResponseWriter, r *http.Request) {
	req := s.reg.NewField()
	if preset := r.URL.Query().Get("preset"); preset != "" {
		var err error
		if req, err = s.reg.FieldPreset(preset); err != nil {
			respondError(w, err)
			return
		}
	}
	if err := decodeBody(r, req); err != nil {
		respondError(w, err)
		return
	}

	sample, err := req.Evaluate()
	s.metrics.FieldEvaluations.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sample)
}

func (s *Server) fit(w http.ResponseWriter, r *http.Request) {
	req := s.reg.NewFit()
	if err := decodeBody(r, req); err != nil {
		respondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), solveTimeout)
	defer cancel()

	res, err := req.Solve(ctx)
	s.metrics.Solves.WithLabelValues("fit", outcome(err)).Inc()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	var body sweepBody
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	var (
		base experiment.Request
		err  error
	)
	if body.Preset != "" {
		base, err = s.reg.Preset(model, body.Preset)
	} else {
		base, err = s.reg.New(model)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if err := experiment.ApplyParams(base, body.Params); err != nil {
		respondError(w, err)
		return
	}
	if body.Integrator != "" {
		base.SolverOptions().Integrator = body.Integrator
	}

	ctx, cancel := context.WithTimeout(r.Context(), sweepTimeout)
	defer cancel()
	res, err := optim.NewGridSearch(body.Axes, s.Workers).Search(ctx, base, body.Metric, body.Maximize)
	if err != nil {
		respondError(w, err)
		return
	}
	s.metrics.Solves.WithLabelValues(model, "sweep").Inc()
	respondJSON(w, http.StatusOK, res)
}

// decodeBody overlays the JSON body onto v. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: request body: %v", dynamo.ErrInvalidParameters, err)
	}
	return nil
}
