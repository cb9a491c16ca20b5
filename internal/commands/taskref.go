package commands

import (
	"strconv"
	"strings"

	"todosync/internal/model"
	"todosync/internal/output"
	"todosync/internal/repository"
)

// TaskRef is a parsed task reference.
type TaskRef struct {
	Letter    rune // 0 if no letter, 'a'-'z' otherwise
	TaskNum   int  // 1-based task number
	HasLetter bool // true if a list letter was provided
	Consumed  int  // number of args the reference took
}

// ParseTaskRef parses a task reference from the start of args.
//
// Accepted forms:
//
//	3     third item of the first list
//	b2    second item of list b
//	b 2   same, separated
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, userError("task reference required")
	}
	first := args[0]

	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, userError("invalid task reference: %s", first)
		}
		return TaskRef{TaskNum: num, Consumed: 1}, nil
	}

	if first != "" && isLetter(rune(first[0])) {
		letter := rune(first[0])
		if len(first) > 1 && isAllDigits(first[1:]) {
			num, err := strconv.Atoi(first[1:])
			if err != nil {
				return TaskRef{}, userError("invalid task reference: %s", first)
			}
			return TaskRef{Letter: letter, TaskNum: num, HasLetter: true, Consumed: 1}, nil
		}
		if len(first) == 1 {
			if len(args) < 2 {
				return TaskRef{}, userError("task reference required")
			}
			if isAllDigits(args[1]) {
				num, err := strconv.Atoi(args[1])
				if err != nil {
					return TaskRef{}, userError("invalid task reference: %s", args[1])
				}
				return TaskRef{Letter: letter, TaskNum: num, HasLetter: true, Consumed: 2}, nil
			}
		}
	}

	return TaskRef{}, userError("invalid task reference: %s", first)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// ResolveTask finds the item a reference points at.
// Letters index the lists in order, 'a' being the first list.
// Numbers count real items from 1.
func ResolveTask(repo *repository.Repository, ref TaskRef) (model.TaskItem, model.TaskList, error) {
	lists := repo.Lists()
	if len(lists) == 0 {
		return model.TaskItem{}, model.TaskList{}, userError("no lists")
	}
	idx := 0
	if ref.HasLetter {
		idx = int(ref.Letter - 'a')
		if idx < 0 || idx >= len(lists) || idx >= output.MaxLetters {
			return model.TaskItem{}, model.TaskList{}, userError("list letter not found: %c", ref.Letter)
		}
	}
	list := lists[idx]
	items := list.RealItems()
	if ref.TaskNum < 1 || ref.TaskNum > len(items) {
		return model.TaskItem{}, model.TaskList{}, userError("task number out of range: %d", ref.TaskNum)
	}
	return items[ref.TaskNum-1], list, nil
}

// ResolveList finds a list by case-insensitive name, or by its letter
// when no list carries that name.
func ResolveList(repo *repository.Repository, arg string) (model.TaskList, error) {
	name := strings.TrimSpace(arg)
	if name == "" {
		return model.TaskList{}, userError("list name required")
	}
	lists := repo.Lists()

	var matches []model.TaskList
	for _, l := range lists {
		if strings.EqualFold(strings.TrimSpace(l.Name), name) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if len(name) == 1 && isLetter(rune(name[0])) {
			if idx := int(name[0] - 'a'); idx < len(lists) {
				return lists[idx], nil
			}
		}
		return model.TaskList{}, userError("list not found: %s", name)
	default:
		return model.TaskList{}, userError("ambiguous list name: %s", name)
	}
}

// listExists reports whether a list with this name exists, ignoring case.
func listExists(repo *repository.Repository, name string) bool {
	name = strings.TrimSpace(name)
	for _, l := range repo.Lists() {
		if strings.EqualFold(strings.TrimSpace(l.Name), name) {
			return true
		}
	}
	return false
}
