package engine

import (
	"context"
	"strings"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// ddlCommand executes structural statements (CREATE, ALTER, DROP, GRANT,
// REVOKE, RECREATE) with savepoint isolation and cache consistency side
// effects.
type ddlCommand struct{}

func (c *ddlCommand) Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()

	info := ParseObjectInfo(stmt.Text)
	var objType, objName string
	if info != nil {
		objType = info.Type
		if len(info.Names) > 0 {
			objName = info.Names[0]
		}
	}

	// The database reports compile errors for an altered package against its
	// body, not the header.
	diagType := objType
	if stmt.Verb == VerbAlter && objType == "PACKAGE" {
		diagType = "PACKAGE BODY"
	}

	if rememberableTypes[diagType] && objName != "" {
		ec.Session.SetLastDDLObject(diagType, objName)
	}

	structuralDrop := info != nil && info.StructuralDrop

	ec.acquireSavepoint(ctx)

	// Leading directive comments were consumed by the framework; the
	// database gets the bare statement.
	text, _ := lexer.StripLeadingComments(stmt.Text)
	sr, err := ec.Handle.Exec(ctx, text, ec.execOptions())
	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		ec.rollbackSavepoint(ctx)
		c.fail(ctx, ec, stmt, res, diagType, objName, structuralDrop, err)
		return res, nil
	}
	ec.logOptionNotes(sr.OptionNotes)

	// Some databases return incidental results even for DDL batches.
	if sr.HasRows {
		if tbl, derr := database.Drain(sr.Rows, ec.Settings.MaxRows); derr == nil {
			res.Table = tbl
		} else {
			ec.Log.WithError(derr).Debug("discarded incidental ddl result")
		}
	}
	// Row counts reported for DDL are not meaningful.
	res.SuppressRowCount = true

	if sr.Warning != "" {
		// A warning may be the only sign that the created object is broken;
		// diagnostics decide whether it is a real definition error.
		if desc := Diagnose(ctx, ec, stmt.Text, nil, diagType, objName, true); desc != nil {
			ec.rollbackSavepoint(ctx)
			res.Success = false
			res.Error = desc
			res.addMessage(msgObjectFailed, stmt.RawVerb, nameOrStatement(objName))
			res.addMessage("%s", desc.Message)
			// The reader's descriptor wins; the raw warning is retained so
			// nothing is dropped.
			res.addMessage(msgWarning, sr.Warning)
			ec.Log.WithField("offset", desc.Offset).Errorf("%s %s failed: %s", stmt.RawVerb, objName, desc.Message)
			return res, nil
		}
		res.addMessage(msgWarning, sr.Warning)
	}

	ec.releaseSavepoint(ctx)
	c.applyCacheEffects(ec, info, structuralDrop)

	if objName != "" {
		res.addMessage(msgObjectOK, stmt.RawVerb, objName)
	} else {
		res.addMessage(msgStatementOK, stmt.RawVerb)
	}
	return res, nil
}

func (c *ddlCommand) fail(ctx context.Context, ec *Context, stmt Statement, res *Result, diagType, objName string, structuralDrop bool, err error) {
	if structuralDrop && ec.Settings.IgnoreDropErrors {
		// Best-effort cleanup scripts continue past missing objects.
		res.Success = true
		res.addMessage(msgDropIgnored, nameOrStatement(objName), err)
		return
	}

	desc := diagnoseFailure(ctx, ec, stmt.Text, err, diagType, objName)
	res.Success = false
	res.Error = desc
	res.addMessage(msgObjectFailed, stmt.RawVerb, nameOrStatement(objName))
	res.addMessage("%s", desc.Message)
	ec.Log.WithField("offset", desc.Offset).Errorf("%s %s failed: %s", stmt.RawVerb, objName, desc.Message)
}

// applyCacheEffects keeps the object cache consistent after successful DDL.
func (c *ddlCommand) applyCacheEffects(ec *Context, info *ObjectInfo, structuralDrop bool) {
	if info == nil {
		return
	}
	if strings.EqualFold(info.Type, "DATABASE") {
		if ec.Cache != nil {
			ec.Cache.Flush()
		}
		if ec.Notify != nil {
			ec.Notify.CatalogChanged()
		}
		return
	}
	if !structuralDrop || ec.Cache == nil {
		return
	}
	for _, name := range info.Names {
		if strings.EqualFold(info.Type, "SCHEMA") {
			ec.Cache.RemoveSchema(name)
		} else {
			ec.Cache.RemoveTable(name)
		}
	}
}

func nameOrStatement(objName string) string {
	if objName == "" {
		return "statement"
	}
	return objName
}
