package qschema

import (
	"github.com/reoring/qschema/internal/tree"
)

// Sub-block keywords of list collector blocks.
var subBlockKeys = []string{"add_block", "edit_block", "add_or_edit_block", "remove_block"}

// Keys whose subtrees reference ids rather than declare them.
var referenceKeys = []string{"routing_rules", "skip_conditions", "when"}

func isSubBlockKey(k string) bool {
	for _, s := range subBlockKeys {
		if s == k {
			return true
		}
	}
	return false
}

// Context locates a schema element within its section, group and block.
type Context struct {
	Section string
	GroupID string
	// Block is the enclosing block id, or the sub-block id for questions
	// nested in add/edit/remove blocks.
	Block string
}

// QuestionContext pairs a question with where it was declared.
type QuestionContext struct {
	Question *Question
	Path     tree.Path
	Context
}

// AnswerContext pairs an answer with the context of its question.
type AnswerContext struct {
	Answer *Answer
	Context
}

// IDPath is a declared id and the path of the element declaring it.
type IDPath struct {
	Path tree.Path
	ID   string
}

type listSectionKey struct {
	list    string
	section string
}

// Index is a queryable view over a questionnaire document. Collections are
// computed once by NewIndex; the memoized lookups fill their caches on first
// use, so an Index must not be shared between goroutines.
type Index struct {
	doc    *Document
	walker tree.Walker

	blocks      []*Block
	blockPaths  []tree.Path
	blocksByID  map[string]*Block
	blockIDs    []string
	subBlocks   map[string]*Block
	subBlockIDs []string

	sectionIDs []string
	groupIDs   []string
	listNames  []string

	questions   []QuestionContext
	answers     map[string]AnswerContext
	answerOrder []string
	topAnswers  []*Answer

	idPaths []IDPath
	ids     []string

	optionValues map[string]map[string]struct{}

	singleListCollector map[listSectionKey]bool
	drivingBlocks       map[string][]*Block
}

// NewIndex builds the index. Structural problems the index cannot work
// around are reported as errors wrapping ErrMalformedDocument.
func NewIndex(doc *Document) (*Index, error) {
	root, ok := doc.Raw.(map[string]any)
	if !ok {
		return nil, malformed("document root must be an object")
	}
	ix := &Index{
		doc:                 doc,
		walker:              tree.Walker{Order: doc.order},
		blocksByID:          map[string]*Block{},
		subBlocks:           map[string]*Block{},
		answers:             map[string]AnswerContext{},
		optionValues:        map[string]map[string]struct{}{},
		singleListCollector: map[listSectionKey]bool{},
		drivingBlocks:       map[string][]*Block{},
	}
	steps := []func(map[string]any) error{
		ix.indexSections,
		ix.indexBlocks,
		ix.indexSubBlocks,
		ix.indexGroups,
		ix.indexQuestions,
		ix.indexIDs,
	}
	for _, step := range steps {
		if err := step(root); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

func (ix *Index) indexSections(root map[string]any) error {
	sections, ok := root["sections"].([]any)
	if !ok {
		return malformed("sections must be a list")
	}
	for i, s := range sections {
		m, ok := s.(map[string]any)
		if !ok {
			return malformed("sections[%d] must be an object", i)
		}
		id, ok := tree.StringField(m, "id")
		if !ok {
			return malformed("sections[%d] has no id", i)
		}
		ix.sectionIDs = append(ix.sectionIDs, id)
	}
	return nil
}

func (ix *Index) indexBlocks(root map[string]any) error {
	for _, match := range ix.walker.FindElements(root, "blocks", nil) {
		m, ok := match.Value.(map[string]any)
		if !ok {
			return malformed("%s must be an object", match.Path)
		}
		id, ok := tree.StringField(m, "id")
		if !ok {
			return malformed("%s has no id", match.Path)
		}
		b := &Block{}
		if err := decodeInto(m, b); err != nil {
			return malformed("%s: %v", match.Path, err)
		}
		ix.blocks = append(ix.blocks, b)
		ix.blockPaths = append(ix.blockPaths, match.Path)
		if _, seen := ix.blocksByID[id]; !seen {
			ix.blockIDs = append(ix.blockIDs, id)
		}
		ix.blocksByID[id] = b
		if b.Type == BlockListCollector {
			ix.listNames = append(ix.listNames, b.ForList)
		}
	}
	return nil
}

func (ix *Index) indexSubBlocks(root map[string]any) error {
	var err error
	ix.walker.Walk(root, func(p tree.Path, v any) bool {
		m, ok := v.(map[string]any)
		if !ok || err != nil {
			return err == nil
		}
		for _, key := range ix.walker.Order.Keys(p, m) {
			if !isSubBlockKey(key) {
				continue
			}
			sub, ok := m[key].(map[string]any)
			if !ok {
				continue
			}
			id, ok := tree.StringField(sub, "id")
			if !ok {
				err = malformed("%s has no id", p.Field(key))
				return false
			}
			b := &Block{}
			if derr := decodeInto(sub, b); derr != nil {
				err = malformed("%s: %v", p.Field(key), derr)
				return false
			}
			ix.subBlockIDs = append(ix.subBlockIDs, id)
			ix.subBlocks[id] = b
		}
		return true
	})
	return err
}

func (ix *Index) indexGroups(root map[string]any) error {
	for _, match := range ix.walker.FindElements(root, "groups", nil) {
		m, ok := match.Value.(map[string]any)
		if !ok {
			return malformed("%s must be an object", match.Path)
		}
		id, ok := tree.StringField(m, "id")
		if !ok {
			return malformed("%s has no id", match.Path)
		}
		ix.groupIDs = append(ix.groupIDs, id)
	}
	return nil
}

func (ix *Index) indexQuestions(root map[string]any) error {
	for _, match := range ix.walker.FindKey(root, "question", nil) {
		m, ok := match.Value.(map[string]any)
		if !ok {
			// e.g. a title string; only objects declare questions
			continue
		}
		q := &Question{}
		if err := decodeInto(m, q); err != nil {
			return malformed("%s: %v", match.Path, err)
		}
		ctx, err := ix.ContextFromPath(match.Path)
		if err != nil {
			return err
		}
		ix.questions = append(ix.questions, QuestionContext{Question: q, Path: match.Path, Context: ctx})
	}

	for _, qc := range ix.questions {
		for i := range qc.Question.Answers {
			a := &qc.Question.Answers[i]
			ix.topAnswers = append(ix.topAnswers, a)
			ix.addAnswer(a, qc.Context)
			for j := range a.Options {
				if d := a.Options[j].DetailAnswer; d != nil {
					ix.addAnswer(d, qc.Context)
				}
			}
			if len(a.Options) > 0 {
				set := ix.optionValues[a.ID]
				if set == nil {
					set = map[string]struct{}{}
					ix.optionValues[a.ID] = set
				}
				for _, o := range a.Options {
					set[o.Value] = struct{}{}
				}
			}
		}
	}
	return nil
}

func (ix *Index) addAnswer(a *Answer, ctx Context) {
	if _, seen := ix.answers[a.ID]; !seen {
		ix.answerOrder = append(ix.answerOrder, a.ID)
	}
	ix.answers[a.ID] = AnswerContext{Answer: a, Context: ctx}
}

func (ix *Index) indexIDs(root map[string]any) error {
	for _, match := range ix.walker.FindKey(root, "id", nil) {
		owner := match.Path[: len(match.Path)-1 : len(match.Path)-1]
		if isReferencePath(owner) {
			continue
		}
		id, ok := match.Value.(string)
		if !ok {
			return malformed("%s must be a string", match.Path)
		}
		ix.idPaths = append(ix.idPaths, IDPath{Path: owner, ID: id})
	}

	// Ids repeated within one block (across its variants) count once; ids
	// outside blocks are kept as they are so repeats show up as duplicates.
	var order []string
	perBlock := map[string][]string{}
	seen := map[string]map[string]struct{}{}
	var outside []string
	for _, ip := range ix.idPaths {
		prefix, _, ok := ip.Path.Enclosing("blocks")
		if !ok {
			outside = append(outside, ip.ID)
			continue
		}
		key := prefix.Pointer()
		if _, ok := seen[key]; !ok {
			seen[key] = map[string]struct{}{}
			order = append(order, key)
		}
		if _, dup := seen[key][ip.ID]; dup {
			continue
		}
		seen[key][ip.ID] = struct{}{}
		perBlock[key] = append(perBlock[key], ip.ID)
	}
	for _, key := range order {
		ix.ids = append(ix.ids, perBlock[key]...)
	}
	ix.ids = append(ix.ids, outside...)
	return nil
}

// isReferencePath reports whether ids below p are references: routing and
// skip conditions, and answers restated inside list collector sub-blocks.
func isReferencePath(p tree.Path) bool {
	if p.HasAny(referenceKeys...) {
		return true
	}
	for i, s := range p {
		if s.IsIndex || !isSubBlockKey(s.Key) {
			continue
		}
		if p[i+1:].Has("answers") {
			return true
		}
	}
	return false
}

// ContextFromPath resolves the section, group and block enclosing p.
func (ix *Index) ContextFromPath(p tree.Path) (Context, error) {
	root := ix.doc.Raw
	var ctx Context

	secPrefix, secIdx, ok := p.Enclosing("sections")
	if !ok || len(secPrefix) != 2 || secIdx >= len(ix.sectionIDs) {
		return ctx, malformed("%s is not inside a section", p)
	}
	ctx.Section = ix.sectionIDs[secIdx]

	if groupPrefix, _, ok := p.Enclosing("groups"); ok {
		id, err := idAt(root, groupPrefix)
		if err != nil {
			return ctx, err
		}
		ctx.GroupID = id
	}

	blockPrefix, _, ok := p.Enclosing("blocks")
	if !ok {
		return ctx, malformed("%s is not inside a block", p)
	}
	id, err := idAt(root, blockPrefix)
	if err != nil {
		return ctx, err
	}
	ctx.Block = id

	if rest := p.After(blockPrefix); len(rest) > 0 && !rest[0].IsIndex && isSubBlockKey(rest[0].Key) {
		sub, err := idAt(root, blockPrefix.Field(rest[0].Key))
		if err != nil {
			return ctx, err
		}
		ctx.Block = sub
	}
	return ctx, nil
}

func idAt(root any, p tree.Path) (string, error) {
	v, ok := tree.Lookup(root, p)
	if !ok {
		return "", malformed("%s does not exist", p)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return "", malformed("%s must be an object", p)
	}
	id, ok := tree.StringField(m, "id")
	if !ok {
		return "", malformed("%s has no id", p)
	}
	return id, nil
}

// Document returns the indexed document.
func (ix *Index) Document() *Document { return ix.doc }

// Blocks returns every block found at any depth, in document order.
func (ix *Index) Blocks() []*Block { return ix.blocks }

// BlockByID returns the block declared with id. Later declarations win.
func (ix *Index) BlockByID(id string) (*Block, bool) {
	b, ok := ix.blocksByID[id]
	return b, ok
}

// BlockIDs returns the distinct block ids in document order.
func (ix *Index) BlockIDs() []string { return ix.blockIDs }

// HasBlockID reports whether a block with id exists.
func (ix *Index) HasBlockID(id string) bool {
	_, ok := ix.blocksByID[id]
	return ok
}

// SubBlockIDs returns the ids of add/edit/add_or_edit/remove sub-blocks.
func (ix *Index) SubBlockIDs() []string { return ix.subBlockIDs }

// SubBlockByID returns the sub-block declared with id.
func (ix *Index) SubBlockByID(id string) (*Block, bool) {
	b, ok := ix.subBlocks[id]
	return b, ok
}

// SectionIDs returns the ids of the top-level sections.
func (ix *Index) SectionIDs() []string { return ix.sectionIDs }

// GroupIDs returns every group id at any depth.
func (ix *Index) GroupIDs() []string { return ix.groupIDs }

// ListNames returns the for_list name of every list collector block.
func (ix *Index) ListNames() []string { return ix.listNames }

// HasListName reports whether a list collector populates name.
func (ix *Index) HasListName(name string) bool {
	for _, n := range ix.listNames {
		if n == name {
			return true
		}
	}
	return false
}

// QuestionsWithContext returns every question with its context in document order.
func (ix *Index) QuestionsWithContext() []QuestionContext { return ix.questions }

// AnswerIDs returns the ids of every answer, detail answers included, in
// order of first declaration.
func (ix *Index) AnswerIDs() []string { return ix.answerOrder }

// AnswerContext returns the answer declared with id and its context.
func (ix *Index) AnswerContext(id string) (AnswerContext, bool) {
	ac, ok := ix.answers[id]
	return ac, ok
}

// AnswersWithContext returns every answer with its context, ordered as AnswerIDs.
func (ix *Index) AnswersWithContext() []AnswerContext {
	out := make([]AnswerContext, 0, len(ix.answerOrder))
	for _, id := range ix.answerOrder {
		out = append(out, ix.answers[id])
	}
	return out
}

// Answers returns the answers of every question, without detail answers.
func (ix *Index) Answers() []*Answer { return ix.topAnswers }

// AnswerOptionValues returns the set of option values of the answer with id.
func (ix *Index) AnswerOptionValues(id string) map[string]struct{} { return ix.optionValues[id] }

// IDPaths returns every declared id with the path of its declaring element.
func (ix *Index) IDPaths() []IDPath { return ix.idPaths }

// IDs returns the ids subject to the global uniqueness check.
func (ix *Index) IDs() []string { return ix.ids }

// DuplicateIDs returns the ids occurring more than once in IDs, each once.
func (ix *Index) DuplicateIDs() []string {
	counts := map[string]int{}
	var dups []string
	for _, id := range ix.ids {
		counts[id]++
		if counts[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// IsHubEnabled reports whether hub.enabled is true.
func (ix *Index) IsHubEnabled() bool {
	root, _ := ix.doc.Raw.(map[string]any)
	hub, _ := root["hub"].(map[string]any)
	enabled, _ := hub["enabled"].(bool)
	return enabled
}

// HasSingleListCollector reports whether exactly one list collector in the
// section populates listName.
func (ix *Index) HasSingleListCollector(listName, sectionID string) bool {
	key := listSectionKey{list: listName, section: sectionID}
	if v, ok := ix.singleListCollector[key]; ok {
		return v
	}
	n := 0
	for i, b := range ix.blocks {
		if b.Type != BlockListCollector || b.ForList != listName {
			continue
		}
		if _, idx, ok := ix.blockPaths[i].Enclosing("sections"); ok && ix.sectionIDs[idx] == sectionID {
			n++
		}
	}
	ix.singleListCollector[key] = n == 1
	return n == 1
}

// DrivingQuestionBlocks returns the driving question blocks for listName.
func (ix *Index) DrivingQuestionBlocks(listName string) []*Block {
	if v, ok := ix.drivingBlocks[listName]; ok {
		return v
	}
	var out []*Block
	for _, b := range ix.blocks {
		if b.Type == BlockListCollectorDrivingQuestion && b.ForList == listName {
			out = append(out, b)
		}
	}
	ix.drivingBlocks[listName] = out
	return out
}

// HasSingleDrivingQuestion reports whether listName has exactly one driving question.
func (ix *Index) HasSingleDrivingQuestion(listName string) bool {
	return len(ix.DrivingQuestionBlocks(listName)) == 1
}

// AllQuestions returns the questions of every variant followed by the single
// question, if any.
func (b *Block) AllQuestions() []*Question {
	var out []*Question
	for i := range b.QuestionVariants {
		out = append(out, &b.QuestionVariants[i].Question)
	}
	if b.Question != nil {
		out = append(out, b.Question)
	}
	return out
}
